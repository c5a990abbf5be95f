package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/vector"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Defaults for Options.
const (
	DefaultWidthPx  = 1200
	DefaultMarginPx = 20
	DefaultStrokePx = 1.5

	// maxHeightPx guards against absurd images from very slim drawings.
	maxHeightPx = 16384
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("nothing to draw")

// Options controls the rendering.
type Options struct {
	// WidthPx is the image width. The height follows from the drawing's
	// aspect ratio.
	WidthPx int

	// MarginPx is the blank border around the drawing.
	MarginPx int

	// StrokePx is the line width.
	StrokePx float64

	// Fill shades the inside of closed outlines.
	Fill bool
}

// DefaultOptions returns a 1200 px wide preview with filled outlines.
func DefaultOptions() Options {
	return Options{
		WidthPx:  DefaultWidthPx,
		MarginPx: DefaultMarginPx,
		StrokePx: DefaultStrokePx,
		Fill:     true,
	}
}

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	fillColor  = color.RGBA{0xe4, 0xe8, 0xee, 0xff}
	pinColor   = color.RGBA{0x1f, 0x5f, 0xbf, 0xff}
)

// aciColors maps the few AutoCAD color indexes the tool writes to RGB.
// Everything else (including BYLAYER and white) is drawn black.
var aciColors = map[int]color.RGBA{
	1: {0xd0, 0x20, 0x20, 0xff},
	2: {0xc0, 0xa0, 0x00, 0xff},
	3: {0x20, 0x90, 0x20, 0xff},
	4: {0x00, 0xa0, 0xa0, 0xff},
	5: {0x20, 0x40, 0xd0, 0xff},
	6: {0xb0, 0x20, 0xb0, 0xff},
}

func strokeColor(aci int) color.RGBA {
	if c, ok := aciColors[aci]; ok {
		return c
	}
	return color.RGBA{0x10, 0x10, 0x10, 0xff}
}

// canvas maps drawing millimetres to pixels with Y pointing down.
type canvas struct {
	min, max model.Point
	scale    float64
	margin   float64
	w, h     int
}

func (c canvas) px(p model.Point) (float32, float32) {
	x := c.margin + (p.X-c.min.X)*c.scale
	y := c.margin + (c.max.Y-p.Y)*c.scale
	return float32(x), float32(y)
}

func newCanvas(b geometry.BBox, opt Options) (canvas, error) {
	inner := float64(opt.WidthPx - 2*opt.MarginPx)
	if inner < 1 {
		return canvas{}, fmt.Errorf("image width %d px leaves no room inside a %d px margin", opt.WidthPx, opt.MarginPx)
	}
	extent := math.Max(b.Width(), b.Height())
	if extent <= 0 {
		return canvas{}, ErrEmpty
	}
	scale := inner / extent
	if b.Width() > 0 {
		scale = inner / b.Width()
	}
	h := int(math.Ceil(b.Height()*scale)) + 2*opt.MarginPx
	if h > maxHeightPx {
		return canvas{}, fmt.Errorf("preview would be %d px tall (max %d); use a smaller width", h, maxHeightPx)
	}
	return canvas{
		min:    b.Min,
		max:    b.Max,
		scale:  scale,
		margin: float64(opt.MarginPx),
		w:      opt.WidthPx,
		h:      h,
	}, nil
}

// Render draws polylines and circles scaled to fit opt.WidthPx.
func Render(polys []model.Polyline, circles []model.Circle, opt Options) (*image.RGBA, error) {
	if opt.WidthPx <= 0 {
		opt.WidthPx = DefaultWidthPx
	}
	if opt.StrokePx <= 0 {
		opt.StrokePx = DefaultStrokePx
	}

	var all []model.Point
	for _, pl := range polys {
		all = append(all, pl.Points...)
	}
	for _, c := range circles {
		all = append(all, c.Center.Sub(model.Pt(c.Radius, c.Radius)), c.Center.Add(model.Pt(c.Radius, c.Radius)))
	}
	if len(all) == 0 {
		return nil, ErrEmpty
	}
	cv, err := newCanvas(geometry.Bounds(all), opt)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, cv.w, cv.h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if opt.Fill {
		for _, pl := range polys {
			if pl.Closed && len(pl.Points) >= 3 {
				fillRing(img, cv, pl.Points, fillColor)
			}
		}
	}
	for _, pl := range polys {
		strokePath(img, cv, pl.Points, pl.Closed, opt.StrokePx, strokeColor(pl.Color))
	}

	// Circles are sampled to about half a pixel.
	tol := 0.5 / cv.scale
	for _, c := range circles {
		ring := geometry.ToRing(geometry.SampleArc(c.Center, c.Radius, 0, 360, tol), 1e-9)
		strokePath(img, cv, ring, true, opt.StrokePx, pinColor)
	}
	return img, nil
}

func fillRing(dst draw.Image, cv canvas, ring []model.Point, c color.Color) {
	z := vector.NewRasterizer(cv.w, cv.h)
	x, y := cv.px(ring[0])
	z.MoveTo(x, y)
	for _, p := range ring[1:] {
		x, y = cv.px(p)
		z.LineTo(x, y)
	}
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// strokePath draws every segment as a quad of the given width. All quads
// wind the same way so overlaps at the joints do not cancel out.
func strokePath(dst draw.Image, cv canvas, pts []model.Point, closed bool, width float64, c color.Color) {
	if len(pts) < 2 {
		return
	}
	z := vector.NewRasterizer(cv.w, cv.h)
	half := width / 2

	segment := func(a, b model.Point) {
		ax, ay := cv.px(a)
		bx, by := cv.px(b)
		dx, dy := float64(bx-ax), float64(by-ay)
		l := math.Hypot(dx, dy)
		if l == 0 {
			return
		}
		// Extend each quad by half the width so joints are covered.
		ux, uy := dx/l*half, dy/l*half
		nx, ny := float32(-uy), float32(ux)
		sx, sy := ax-float32(ux), ay-float32(uy)
		ex, ey := bx+float32(ux), by+float32(uy)

		z.MoveTo(sx+nx, sy+ny)
		z.LineTo(ex+nx, ey+ny)
		z.LineTo(ex-nx, ey-ny)
		z.LineTo(sx-nx, sy-ny)
		z.ClosePath()
	}

	for i := 1; i < len(pts); i++ {
		segment(pts[i-1], pts[i])
	}
	if closed {
		segment(pts[len(pts)-1], pts[0])
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// WritePNG encodes img to path, creating parent directories as needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
