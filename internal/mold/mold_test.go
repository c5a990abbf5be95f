package mold

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// celloOutline builds a symmetric, cello-like outline along X: 755 mm long,
// bouts 340 mm wide and four sharp corners 160 mm from the centre. It is
// counter-clockwise and starts at the neck end.
func celloOutline() []model.Point {
	const (
		boutCenter = 200.0
		boutA      = 177.5
		boutB      = 170.0
	)
	var right []model.Point

	// Bout, from the neck tip to where it meets the corner edge.
	phiEnd := math.Acos((180 - boutCenter) / boutA)
	for i := 0; i <= 120; i++ {
		phi := phiEnd * float64(i) / 120
		right = append(right, model.Pt(boutCenter+boutA*math.Cos(phi), boutB*math.Sin(phi)))
	}
	// Corner tip and the steep start of the C-bout.
	right = append(right, model.Pt(80, 190), model.Pt(70, 133))
	// C-bout as a quadratic curve into the waist.
	p0, p1, p2 := model.Pt(70, 133), model.Pt(67, 116), model.Pt(0, 115)
	for i := 1; i <= 40; i++ {
		t := float64(i) / 40
		a := p0.Scale((1 - t) * (1 - t))
		b := p1.Scale(2 * t * (1 - t))
		c := p2.Scale(t * t)
		right = append(right, a.Add(b).Add(c))
	}

	top := append([]model.Point(nil), right...)
	for i := len(right) - 2; i >= 0; i-- {
		top = append(top, model.Pt(-right[i].X, right[i].Y))
	}

	ring := append([]model.Point(nil), top...)
	for i := len(top) - 2; i >= 1; i-- {
		ring = append(ring, model.Pt(top[i].X, -top[i].Y))
	}
	return ring
}

func TestCelloOutline_Fixture(t *testing.T) {
	ring := celloOutline()
	b := geometry.Bounds(ring)
	assert.InDelta(t, 755, b.Width(), 1e-9)
	assert.InDelta(t, 380, b.Height(), 1e-9)
	assert.True(t, geometry.IsCCW(ring))
	assert.True(t, geometry.IsSimple(ring))
}

func TestGenerate_AxisX(t *testing.T) {
	res, err := Generate(celloOutline(), model.DefaultMoldParams())
	require.NoError(t, err)

	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 755, res.Source.Width(), 1e-9)

	// Neck and end flats.
	b := geometry.Bounds(res.Outline)
	assert.InDelta(t, 377.5-62, b.Max.X, 1e-9)
	assert.InDelta(t, -377.5+58, b.Min.X, 1e-9)

	// Four corners, one per quadrant around the waist, all trimmed off.
	require.Len(t, res.Corners, 4)
	quadrants := map[[2]bool]bool{}
	for _, c := range res.Corners {
		assert.InDelta(t, 80, math.Abs(c.Point.X), 1.5)
		assert.InDelta(t, 190, math.Abs(c.Point.Y), 1.5)
		quadrants[[2]bool{c.Point.X > 0, c.Point.Y > 0}] = true
	}
	assert.Len(t, quadrants, 4)
	assert.Less(t, b.Max.Y, 185.0)
	assert.Greater(t, b.Min.Y, -185.0)
	assert.True(t, geometry.IsSimple(res.Outline))

	// Three pins on the centerline.
	require.Len(t, res.Pins, 3)
	for _, p := range res.Pins {
		assert.InDelta(t, 0, p.Center.Y, 1e-9)
		assert.Equal(t, 3.0, p.Radius)
		assert.Equal(t, LayerPins, p.Layer)
	}
	assert.InDelta(t, b.Min.X+0.5*b.Width(), res.Pins[1].Center.X, 1e-9)

	// Halves split along the centerline.
	areaA, areaB := geometry.Area(res.HalfA), geometry.Area(res.HalfB)
	assert.GreaterOrEqual(t, areaA, areaB)
	assert.InDelta(t, areaA, areaB, 0.01*areaA)
	assert.InDelta(t, geometry.Area(res.Outline), areaA+areaB, 1e-6)
}

func TestGenerate_AxisY(t *testing.T) {
	// Rotate the body so the neck points to +Y.
	ring := geometry.Transform(celloOutline(), func(p model.Point) model.Point {
		return model.Pt(-p.Y, p.X)
	})
	params := model.DefaultMoldParams()
	params.Axis = model.AxisY

	res, err := Generate(ring, params)
	require.NoError(t, err)

	b := geometry.Bounds(res.Outline)
	assert.InDelta(t, 377.5-62, b.Max.Y, 1e-9)
	assert.InDelta(t, -377.5+58, b.Min.Y, 1e-9)
	assert.Len(t, res.Corners, 4)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Pins, 3)
	for _, p := range res.Pins {
		assert.InDelta(t, 0, p.Center.X, 1e-9)
	}
	assert.InDelta(t, geometry.Area(res.HalfA), geometry.Area(res.HalfB), 0.01*geometry.Area(res.HalfA))
}

func TestGenerate_Errors(t *testing.T) {
	params := model.DefaultMoldParams()
	params.PinDiamMM = 0
	_, err := Generate(celloOutline(), params)
	assert.Error(t, err)

	params = model.DefaultMoldParams()
	params.NeckFlatMM = 800
	_, err = Generate(celloOutline(), params)
	assert.ErrorIs(t, err, geometry.ErrEmptyClip)

	_, err = Generate([]model.Point{model.Pt(0, 0), model.Pt(1, 1)}, model.DefaultMoldParams())
	assert.ErrorIs(t, err, geometry.ErrDegenerateRing)
}

func TestGenerate_PinsNeedClearance(t *testing.T) {
	// A long strip 6 mm wide: the pin disc (1.2 * 3 mm radius) does not fit.
	strip := []model.Point{model.Pt(0, -3), model.Pt(400, -3), model.Pt(400, 3), model.Pt(0, 3)}
	pins := placePins(strip, newFrame(model.AxisX, model.Pt(200, 0)), model.DefaultMoldParams())
	assert.Empty(t, pins)

	wide := []model.Point{model.Pt(0, -10), model.Pt(400, -10), model.Pt(400, 10), model.Pt(0, 10)}
	pins = placePins(wide, newFrame(model.AxisX, model.Pt(200, 0)), model.DefaultMoldParams())
	require.Len(t, pins, 3)
	assert.Equal(t, model.Pt(100, 0), pins[0].Center)
	assert.Equal(t, model.Pt(300, 0), pins[2].Center)
}

func TestFlatNormal(t *testing.T) {
	f := newFrame(model.AxisX, model.Pt(0, 0))
	c := Corner{Point: model.Pt(80, 190), Bisector: model.Pt(-0.5, 0.8).Normalize()}
	n := flatNormal(c, f, 45)
	assert.InDelta(t, -math.Sqrt2/2, n.X, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, n.Y, 1e-12)

	// With the bisector square to the axis, the quadrant decides: corners
	// on the neck side point back towards the waist.
	c = Corner{Point: model.Pt(80, -190), Bisector: model.Pt(0, -1)}
	n = flatNormal(c, f, 30)
	assert.InDelta(t, -math.Cos(math.Pi/6), n.X, 1e-12)
	assert.InDelta(t, -math.Sin(math.Pi/6), n.Y, 1e-12)

	// Axis Y swaps the roles of X and Y.
	f = newFrame(model.AxisY, model.Pt(0, 0))
	c = Corner{Point: model.Pt(190, 80), Bisector: model.Pt(0.8, -0.5).Normalize()}
	n = flatNormal(c, f, 30)
	assert.InDelta(t, math.Sin(math.Pi/6), n.X, 1e-12)
	assert.InDelta(t, -math.Cos(math.Pi/6), n.Y, 1e-12)
}

func TestWriteFiles(t *testing.T) {
	res, err := Generate(celloOutline(), model.DefaultMoldParams())
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "out", "mold")
	files, err := WriteFiles(prefix, res)
	require.NoError(t, err)
	assert.Equal(t, prefix+"_full.dxf", files.Full)
	assert.Equal(t, prefix+"_halfA.dxf", files.HalfA)
	assert.Equal(t, prefix+"_halfB.dxf", files.HalfB)

	for _, path := range []string{files.Full, files.HalfA, files.HalfB} {
		d, err := dxf.ReadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, dxf.VersionR2000, d.Version)

		var cuts, pins int
		for _, e := range d.Entities {
			switch e.Layer {
			case LayerCut:
				cuts++
				assert.Equal(t, dxf.TypeLWPolyline, e.Type)
				assert.True(t, e.Closed)
			case LayerPins:
				pins++
				assert.Equal(t, dxf.TypeCircle, e.Type)
			}
		}
		assert.Equal(t, 1, cuts, path)
		assert.Equal(t, 3, pins, path)
	}

	full, err := dxf.ReadFile(files.Full)
	require.NoError(t, err)
	outline, err := geometry.LargestOutline(full, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, geometry.Area(res.Outline), geometry.Area(outline.Ring), 1e-3)
}
