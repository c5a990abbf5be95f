package preview

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

func rectPolyline(w, h float64, aci int) model.Polyline {
	return model.Polyline{
		Points: []model.Point{model.Pt(0, 0), model.Pt(w, 0), model.Pt(w, h), model.Pt(0, h)},
		Closed: true,
		Color:  aci,
	}
}

func rgba(t *testing.T, c color.Color) color.RGBA {
	t.Helper()
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestRender_ScaleAndFill(t *testing.T) {
	opt := Options{WidthPx: 220, MarginPx: 10, StrokePx: 2, Fill: true}
	img, err := Render([]model.Polyline{rectPolyline(100, 50, 7)}, nil, opt)
	require.NoError(t, err)

	// 100 mm across 200 px: 2 px/mm, so 50 mm tall plus margins.
	assert.Equal(t, 220, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	assert.Equal(t, background, rgba(t, img.At(0, 0)))
	assert.Equal(t, fillColor, rgba(t, img.At(110, 60)))

	// The left edge at x=0 mm lands on pixel column 10.
	edge := rgba(t, img.At(10, 60))
	assert.Less(t, edge.R, uint8(0x40))
}

func TestRender_FlipsY(t *testing.T) {
	opt := Options{WidthPx: 220, MarginPx: 10, StrokePx: 2}
	line := model.Polyline{Points: []model.Point{model.Pt(0, 40), model.Pt(100, 40)}, Color: 1}
	img, err := Render([]model.Polyline{rectPolyline(100, 50, 7), line}, nil, opt)
	require.NoError(t, err)

	// 10 mm below the top edge is 20 px below the top margin.
	c := rgba(t, img.At(110, 30))
	assert.Greater(t, int(c.R), int(c.G)+0x60)

	// The same distance above the bottom edge stays blank (no fill).
	assert.Equal(t, background, rgba(t, img.At(110, 90)))
}

func TestRender_Circles(t *testing.T) {
	opt := Options{WidthPx: 220, MarginPx: 10, StrokePx: 2, Fill: true}
	pin := model.Circle{Center: model.Pt(50, 25), Radius: 3}
	img, err := Render([]model.Polyline{rectPolyline(100, 50, 7)}, []model.Circle{pin}, opt)
	require.NoError(t, err)

	assert.Equal(t, fillColor, rgba(t, img.At(110, 60)))
	c := rgba(t, img.At(116, 60))
	assert.Greater(t, int(c.B), int(c.R)+0x40)
}

func TestRender_Errors(t *testing.T) {
	_, err := Render(nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Render([]model.Polyline{rectPolyline(10, 10, 7)}, nil, Options{WidthPx: 30, MarginPx: 20})
	assert.Error(t, err)

	point := model.Polyline{Points: []model.Point{model.Pt(1, 1), model.Pt(1, 1)}}
	_, err = Render([]model.Polyline{point}, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	// A 1000:1 sliver at 1200 px would be far too tall when drawn sideways.
	sliver := model.Polyline{Points: []model.Point{model.Pt(0, 0), model.Pt(1, 0), model.Pt(1, 1000), model.Pt(0, 1000)}}
	_, err = Render([]model.Polyline{sliver}, nil, DefaultOptions())
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	img, err := Render([]model.Polyline{rectPolyline(100, 50, 1)}, nil, DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "preview.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	assert.Equal(t, DefaultWidthPx, decoded.Bounds().Dx())
}

func TestFromDrawing(t *testing.T) {
	d := dxf.NewDrawing()
	d.AddPolyline(model.Polyline{
		Points: []model.Point{model.Pt(0, 0), model.Pt(100, 0), model.Pt(100, 50), model.Pt(0, 50)},
		Closed: true,
		Color:  1,
	})
	d.AddLine(model.Pt(0, 25), model.Pt(100, 25), "CENTER")
	d.AddCircle(model.Circle{Center: model.Pt(50, 25), Radius: 3, Layer: "PINS"})
	d.Entities = append(d.Entities, dxf.Entity{Type: "MTEXT"})

	polys, circles := FromDrawing(d, 0.2)
	require.Len(t, polys, 2)
	assert.True(t, polys[0].Closed)
	assert.Len(t, polys[0].Points, 4)
	assert.Equal(t, 1, polys[0].Color)
	assert.False(t, polys[1].Closed)
	assert.Equal(t, "CENTER", polys[1].Layer)

	require.Len(t, circles, 1)
	assert.Equal(t, model.Pt(50, 25), circles[0].Center)
	assert.Equal(t, "PINS", circles[0].Layer)

	img, err := Render(polys, circles, Options{WidthPx: 220, MarginPx: 10, StrokePx: 2, Fill: true})
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dy())
}
