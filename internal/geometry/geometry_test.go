package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// rect returns an axis-aligned rectangle ring, counter-clockwise.
func rect(x0, y0, x1, y1 float64) []model.Point {
	return []model.Point{model.Pt(x0, y0), model.Pt(x1, y0), model.Pt(x1, y1), model.Pt(x0, y1)}
}

func TestSignedArea(t *testing.T) {
	ring := rect(0, 0, 100, 50)
	assert.InDelta(t, 5000, SignedArea(ring), 1e-9)
	assert.True(t, IsCCW(ring))
	assert.InDelta(t, -5000, SignedArea(Reverse(ring)), 1e-9)
	assert.False(t, IsCCW(Reverse(ring)))
	assert.InDelta(t, 300, Perimeter(ring), 1e-9)
	assert.Zero(t, SignedArea(ring[:2]))
}

func TestBounds(t *testing.T) {
	b := Bounds([]model.Point{model.Pt(3, -1), model.Pt(-2, 4), model.Pt(1, 1)})
	assert.Equal(t, model.Pt(-2, -1), b.Min)
	assert.Equal(t, model.Pt(3, 4), b.Max)
	assert.Equal(t, 5.0, b.Width())
	assert.Equal(t, 5.0, b.Height())
	assert.Equal(t, model.Pt(0.5, 1.5), b.Center())
	assert.Equal(t, BBox{}, Bounds(nil))
}

func TestDedupeAndToRing(t *testing.T) {
	path := []model.Point{
		model.Pt(0, 0), model.Pt(0, 0), model.Pt(1, 0),
		model.Pt(1, 1e-12), model.Pt(1, 1), model.Pt(0, 0),
	}
	assert.Equal(t, []model.Point{model.Pt(0, 0), model.Pt(1, 0), model.Pt(1, 1), model.Pt(0, 0)}, Dedupe(path))
	assert.True(t, IsClosed(Dedupe(path), 0.01))
	assert.Equal(t, []model.Point{model.Pt(0, 0), model.Pt(1, 0), model.Pt(1, 1)}, ToRing(path, 0.01))
	assert.Nil(t, Dedupe(nil))
}

func TestContainsAndDistance(t *testing.T) {
	ring := rect(0, 0, 10, 10)
	assert.True(t, Contains(ring, model.Pt(5, 5)))
	assert.False(t, Contains(ring, model.Pt(15, 5)))
	assert.False(t, Contains(ring, model.Pt(-1, -1)))

	assert.InDelta(t, 2, DistanceToRing(ring, model.Pt(2, 5)), 1e-12)
	assert.InDelta(t, 5, DistanceToRing(ring, model.Pt(15, 5)), 1e-12)
	assert.InDelta(t, math.Sqrt2, DistanceToSegment(model.Pt(-1, -1), model.Pt(0, 0), model.Pt(10, 0)), 1e-12)
}

func TestSampleArc_FullCircle(t *testing.T) {
	center := model.Pt(10, -5)
	pts := SampleArc(center, 25, 0, 360, 0.2)

	require.Len(t, pts, minArcSegments+1)
	for _, p := range pts {
		assert.InDelta(t, 25, p.Dist(center), 1e-9)
	}
	assert.InDelta(t, 0, pts[0].Dist(pts[len(pts)-1]), 1e-9)
}

func TestSampleArc_TolerancePicksSegments(t *testing.T) {
	// A large radius with a tight tolerance needs more than the minimum.
	pts := SampleArc(model.Pt(0, 0), 1000, 0, 360, 0.01)
	step := 2 * math.Acos(1-0.01/1000)
	want := int(math.Ceil(2*math.Pi/step)) + 1
	assert.Len(t, pts, want)

	// Sagitta of each chord stays within tolerance.
	for i := 1; i < len(pts); i++ {
		mid := pts[i-1].Lerp(pts[i], 0.5)
		assert.LessOrEqual(t, 1000-mid.Len(), 0.01+1e-9)
	}
}

func TestSampleArc_Wraps(t *testing.T) {
	// 270 -> 90 runs counter-clockwise through 0 degrees.
	pts := SampleArc(model.Pt(0, 0), 10, 270, 90, 0.1)
	assert.InDelta(t, 0, pts[0].X, 1e-9)
	assert.InDelta(t, -10, pts[0].Y, 1e-9)
	assert.InDelta(t, 10, pts[len(pts)-1].Y, 1e-9)
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.X, -1e-9)
	}
}

func TestSampleArc_TinyRadius(t *testing.T) {
	pts := SampleArc(model.Pt(0, 0), 0.1, 0, 360, 0.2)
	assert.Len(t, pts, tinyArcSegments+1)
}

func TestBulgeArc_Semicircle(t *testing.T) {
	p0, p1 := model.Pt(0, 0), model.Pt(10, 0)
	pts := BulgeArc(p0, p1, 1, 0.05)

	require.NotEmpty(t, pts)
	assert.Equal(t, p1, pts[len(pts)-1])
	minY := 0.0
	for _, p := range pts {
		assert.InDelta(t, 5, p.Dist(model.Pt(5, 0)), 1e-9)
		minY = math.Min(minY, p.Y)
	}
	// Positive bulge turns counter-clockwise, which passes below the chord
	// when going left to right.
	assert.InDelta(t, -5, minY, 0.05)
}

func TestBulgeArc_Straight(t *testing.T) {
	assert.Equal(t, []model.Point{model.Pt(3, 4)}, BulgeArc(model.Pt(0, 0), model.Pt(3, 4), 0, 0.1))
}

func TestSampleBulgedPolyline_Closed(t *testing.T) {
	vs := []dxf.Vertex{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	pts := SampleBulgedPolyline(vs, true, 0.1)
	assert.Equal(t, []model.Point{
		model.Pt(0, 0), model.Pt(10, 0), model.Pt(10, 10), model.Pt(0, 10), model.Pt(0, 0),
	}, pts)

	assert.Len(t, SampleBulgedPolyline(vs, false, 0.1), 4)
	assert.Nil(t, SampleBulgedPolyline(nil, true, 0.1))
}

func TestSampleEllipse(t *testing.T) {
	pts := SampleEllipse(model.Pt(0, 0), model.Pt(10, 0), 0.5, 0, 2*math.Pi, 0.1)
	require.Greater(t, len(pts), minArcSegments)
	for _, p := range pts {
		assert.InDelta(t, 1, (p.X/10)*(p.X/10)+(p.Y/5)*(p.Y/5), 1e-9)
	}
}

func TestSampleSpline_QuadraticBezier(t *testing.T) {
	ctrl := []model.Point{model.Pt(0, 0), model.Pt(5, 10), model.Pt(10, 0)}
	knots := []float64{0, 0, 0, 1, 1, 1}
	pts := SampleSpline(2, knots, nil, ctrl, nil, 0.01)

	require.Greater(t, len(pts), 4)
	assert.Equal(t, model.Pt(0, 0), pts[0])
	assert.InDelta(t, 10, pts[len(pts)-1].X, 1e-12)
	assert.InDelta(t, 0, pts[len(pts)-1].Y, 1e-12)
	for _, p := range pts {
		// x = 10t, y = 20t(1-t)
		assert.InDelta(t, 2*p.X-p.X*p.X/5, p.Y, 1e-9)
	}
}

func TestSampleSpline_RationalCircle(t *testing.T) {
	// A quarter circle as a rational quadratic.
	w := math.Sqrt2 / 2
	ctrl := []model.Point{model.Pt(1, 0), model.Pt(1, 1), model.Pt(0, 1)}
	pts := SampleSpline(2, []float64{0, 0, 0, 1, 1, 1}, []float64{1, w, 1}, ctrl, nil, 0.001)
	for _, p := range pts {
		assert.InDelta(t, 1, p.Len(), 1e-9)
	}
}

func TestSampleSpline_FitPointsAndBadKnots(t *testing.T) {
	fit := []model.Point{model.Pt(0, 0), model.Pt(1, 1), model.Pt(2, 0)}
	assert.Equal(t, fit, SampleSpline(3, nil, nil, nil, fit, 0.1))

	// A knot vector of the wrong length falls back to clamped uniform.
	ctrl := []model.Point{model.Pt(0, 0), model.Pt(10, 0), model.Pt(10, 10)}
	pts := SampleSpline(1, []float64{0, 1}, nil, ctrl, nil, 0.1)
	assert.Equal(t, model.Pt(0, 0), pts[0])
	assert.Equal(t, model.Pt(10, 10), pts[len(pts)-1])
	assert.Contains(t, pts, model.Pt(10, 0))
}

func TestFlattenEntity(t *testing.T) {
	line := &dxf.Entity{Type: dxf.TypeLine, Start: model.Pt(1, 2), End: model.Pt(3, 4)}
	assert.Equal(t, []model.Point{model.Pt(1, 2), model.Pt(3, 4)}, FlattenEntity(line, 0.1))

	text := &dxf.Entity{Type: "TEXT"}
	assert.Nil(t, FlattenEntity(text, 0.1))
	assert.True(t, Skippable("TEXT"))
	assert.False(t, Skippable(dxf.TypeLine))

	// Circles with a -Z extrusion are mirrored across the Y axis.
	circle := &dxf.Entity{
		Type:      dxf.TypeCircle,
		Center:    model.Pt(10, 0),
		Radius:    3,
		Extrusion: [3]float64{0, 0, -1},
	}
	pts := FlattenEntity(circle, 0.1)
	require.NotEmpty(t, pts)
	for _, p := range pts {
		assert.InDelta(t, 3, p.Dist(model.Pt(-10, 0)), 1e-9)
	}
}

func TestJoin_FourCases(t *testing.T) {
	t.Run("tail cases close a square", func(t *testing.T) {
		segments := [][]model.Point{
			{model.Pt(0, 0), model.Pt(1, 0)},
			{model.Pt(1, 1), model.Pt(1, 0)},
			{model.Pt(0, 1), model.Pt(1, 1)},
			{model.Pt(0, 1), model.Pt(0, 0.005)},
		}
		res := Join(segments, DefaultJoinTolerance)
		assert.Equal(t, 4, res.Used)
		assert.Zero(t, res.Leftover)
		assert.True(t, res.Closed(DefaultJoinTolerance))
		assert.Equal(t, []model.Point{
			model.Pt(0, 0), model.Pt(1, 0), model.Pt(1, 1), model.Pt(0, 1), model.Pt(0, 0.005),
		}, res.Path)
	})

	t.Run("head cases prepend", func(t *testing.T) {
		segments := [][]model.Point{
			{model.Pt(1, 0), model.Pt(2, 0)},
			{model.Pt(0, 0), model.Pt(1, 0)},
			{model.Pt(0, 0), model.Pt(-1, 0)},
			{model.Pt(10, 10), model.Pt(11, 11)},
		}
		res := Join(segments, DefaultJoinTolerance)
		assert.Equal(t, []model.Point{model.Pt(-1, 0), model.Pt(0, 0), model.Pt(1, 0), model.Pt(2, 0)}, res.Path)
		assert.Equal(t, 3, res.Used)
		assert.Equal(t, 1, res.Leftover)
		assert.False(t, res.Closed(DefaultJoinTolerance))
	})

	t.Run("empty and short segments", func(t *testing.T) {
		res := Join([][]model.Point{{model.Pt(0, 0)}, nil}, DefaultJoinTolerance)
		assert.Empty(t, res.Path)
		assert.Zero(t, res.Used)
	})
}

func TestOffsetInward_Rectangle(t *testing.T) {
	tests := []struct {
		name string
		ring []model.Point
	}{
		{name: "counter-clockwise", ring: rect(0, 0, 100, 50)},
		{name: "clockwise", ring: Reverse(rect(0, 0, 100, 50))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := OffsetInward(tt.ring, model.DefaultMoldOffsetMM)
			require.NoError(t, err)

			b := Bounds(out)
			assert.InDelta(t, 95.6, b.Width(), 1e-9)
			assert.InDelta(t, 45.6, b.Height(), 1e-9)
			assert.InDelta(t, 2.2, b.Min.X, 1e-9)
			assert.InDelta(t, 2.2, b.Min.Y, 1e-9)
			assert.Equal(t, IsCCW(tt.ring), IsCCW(out))

			stats := OffsetDistance(tt.ring, out)
			assert.InDelta(t, 2.2, stats.Min, 1e-9)
			assert.InDelta(t, 2.2, stats.Median, 1e-9)
			assert.InDelta(t, 2.2, stats.Max, 1e-9)
		})
	}
}

func TestOffsetInward_SharpNotch(t *testing.T) {
	// A 100x50 box with a 10 degree V-notch, 20 mm deep, cut into the top.
	hw := 20 * math.Tan(5*math.Pi/180)
	tip := model.Pt(50, 30)
	notch := []model.Point{
		model.Pt(0, 0), model.Pt(100, 0), model.Pt(100, 50),
		model.Pt(50+hw, 50), tip, model.Pt(50-hw, 50), model.Pt(0, 50),
	}
	tests := []struct {
		name string
		ring []model.Point
	}{
		{name: "counter-clockwise", ring: notch},
		{name: "clockwise", ring: Reverse(notch)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := OffsetInward(tt.ring, 2.2)
			require.NoError(t, err)
			assert.True(t, IsSimple(out))

			stats := OffsetDistance(tt.ring, out)
			assert.GreaterOrEqual(t, stats.Min, 2.2-0.01)
			assert.InDelta(t, 2.2, stats.Median, 1e-6)
			assert.InDelta(t, 2.2, stats.Max, 1e-6)

			// The offset rounds the notch tip at the full distance.
			assert.InDelta(t, 2.2, DistanceToRing(out, tip), 0.01)
		})
	}
}

func TestOffsetInward_SharpConvexCorner(t *testing.T) {
	// The apex miter lies more than 4*d from the apex; it is still the
	// exact offset corner.
	spike := []model.Point{model.Pt(0, -20), model.Pt(120, 0), model.Pt(0, 20)}
	out, err := OffsetInward(spike, 2.2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	stats := OffsetDistance(spike, out)
	assert.InDelta(t, 2.2, stats.Min, 1e-6)
	assert.InDelta(t, 2.2, stats.Max, 1e-6)
	assert.InDelta(t, 120-2.2/math.Sin(math.Atan2(20, 120)), Bounds(out).Max.X, 1e-9)
}

func TestOffsetInward_Errors(t *testing.T) {
	_, err := OffsetInward(rect(0, 0, 10, 10), -1)
	assert.Error(t, err)

	_, err = OffsetInward([]model.Point{model.Pt(0, 0), model.Pt(1, 1)}, 1)
	assert.ErrorIs(t, err, ErrDegenerateRing)

	// A 4 mm strip cannot shrink by 2.2 mm on both sides.
	_, err = OffsetInward(rect(0, 0, 100, 4), 2.2)
	assert.ErrorIs(t, err, ErrDegenerateRing)

	out, err := OffsetInward(rect(0, 0, 10, 10), 0)
	require.NoError(t, err)
	assert.Equal(t, rect(0, 0, 10, 10), out)
}

func TestOffsetInward_CircleStaysSimple(t *testing.T) {
	circle := ToRing(SampleArc(model.Pt(0, 0), 50, 0, 360, 0.05), 1e-9)
	out, err := OffsetInward(circle, 2.2)
	require.NoError(t, err)
	assert.True(t, IsSimple(out))

	stats := OffsetDistance(circle, out)
	assert.InDelta(t, 2.2, stats.Median, 0.01)
}

func TestSelfIntersections(t *testing.T) {
	bowtie := []model.Point{model.Pt(0, 0), model.Pt(10, 10), model.Pt(10, 0), model.Pt(0, 10)}
	xs := SelfIntersections(bowtie, 0)
	require.Len(t, xs, 1)
	assert.Equal(t, 0, xs[0].EdgeA)
	assert.Equal(t, 2, xs[0].EdgeB)
	assert.InDelta(t, 5, xs[0].Point.X, 1e-9)
	assert.InDelta(t, 5, xs[0].Point.Y, 1e-9)
	assert.False(t, IsSimple(bowtie))
	assert.True(t, IsSimple(rect(0, 0, 1, 1)))
}

func TestSegmentIntersection(t *testing.T) {
	p, ok := SegmentIntersection(model.Pt(0, 0), model.Pt(2, 2), model.Pt(0, 2), model.Pt(2, 0))
	require.True(t, ok)
	assert.InDelta(t, 1, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)

	// Shared end points and parallel segments do not count.
	_, ok = SegmentIntersection(model.Pt(0, 0), model.Pt(1, 0), model.Pt(1, 0), model.Pt(1, 1))
	assert.False(t, ok)
	_, ok = SegmentIntersection(model.Pt(0, 0), model.Pt(1, 0), model.Pt(0, 1), model.Pt(1, 1))
	assert.False(t, ok)
}

func TestRemoveLoops(t *testing.T) {
	// A square with a small twisted ear on its right edge.
	ring := []model.Point{
		model.Pt(0, 0), model.Pt(10, 0), model.Pt(10, 6), model.Pt(11, 4),
		model.Pt(11, 5), model.Pt(10, 4), model.Pt(10, 10), model.Pt(0, 10),
	}
	require.False(t, IsSimple(ring))
	out := RemoveLoops(ring)
	assert.True(t, IsSimple(out))
	assert.InDelta(t, 100, Area(out), 1)
}

func TestClipHalfPlane_Square(t *testing.T) {
	out, err := ClipHalfPlane(rect(0, 0, 10, 10), model.Pt(5, 0), model.Pt(1, 0))
	require.NoError(t, err)
	assert.InDelta(t, 50, Area(out), 1e-9)
	b := Bounds(out)
	assert.InDelta(t, 5, b.Max.X, 1e-12)
	assert.InDelta(t, 0, b.Min.X, 1e-12)

	// Keeping everything returns the ring unchanged.
	out, err = ClipHalfPlane(rect(0, 0, 10, 10), model.Pt(20, 0), model.Pt(1, 0))
	require.NoError(t, err)
	assert.Equal(t, rect(0, 0, 10, 10), out)

	_, err = ClipHalfPlane(rect(0, 0, 10, 10), model.Pt(-5, 0), model.Pt(1, 0))
	assert.ErrorIs(t, err, ErrEmptyClip)
}

func TestSplitHalfPlane_ConcaveMakesTwoPieces(t *testing.T) {
	u := []model.Point{
		model.Pt(0, 0), model.Pt(30, 0), model.Pt(30, 30), model.Pt(20, 30),
		model.Pt(20, 10), model.Pt(10, 10), model.Pt(10, 30), model.Pt(0, 30),
	}
	// Keep y >= 20: the two arms of the U.
	pieces, err := SplitHalfPlane(u, model.Pt(0, 20), model.Pt(0, -1))
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	for _, p := range pieces {
		assert.InDelta(t, 100, Area(p), 1e-9)
		assert.True(t, IsCCW(p))
	}
}

func TestSplitByLine_SymmetricHalves(t *testing.T) {
	circle := ToRing(SampleArc(model.Pt(0, 0), 40, 0, 360, 0.05), 1e-9)
	a, b, err := SplitByLine(circle, model.Pt(0, 0), model.Pt(1, 0))
	require.NoError(t, err)
	assert.InDelta(t, Area(a), Area(b), 1e-6)
	assert.InDelta(t, Area(circle), Area(a)+Area(b), 1e-6)
	assert.GreaterOrEqual(t, Area(a), Area(b))
}

func TestResample(t *testing.T) {
	pts := Resample(rect(0, 0, 10, 10), 4)
	assert.Equal(t, rect(0, 0, 10, 10), pts)

	pts = Resample(rect(0, 0, 10, 10), 40)
	require.Len(t, pts, 40)
	for i := 1; i < len(pts); i++ {
		assert.InDelta(t, 1, pts[i-1].Dist(pts[i]), 1e-9)
	}
	assert.Nil(t, Resample(nil, 4))
}

func TestCornerScores(t *testing.T) {
	pts := Resample(rect(0, 0, 10, 10), 40)
	scores := CornerScores(pts, 3)

	assert.InDelta(t, math.Pi/2, scores[0], 1e-9)
	assert.InDelta(t, 0, scores[5], 1e-9)

	top := RankByScore(scores)[:4]
	assert.ElementsMatch(t, []int{0, 10, 20, 30}, top)
}

func TestCheck(t *testing.T) {
	r := Check(append(rect(0, 0, 10, 10), model.Pt(0, 0)), false, 0.01)
	assert.True(t, r.OK())
	assert.Equal(t, 4, r.Points)
	assert.InDelta(t, 100, r.Area, 1e-9)

	bowtie := []model.Point{model.Pt(0, 0), model.Pt(10, 10), model.Pt(10, 0), model.Pt(0, 10)}
	r = Check(bowtie, true, 0.01)
	assert.False(t, r.OK())
	assert.False(t, r.Simple)
	assert.Len(t, r.SelfIntersections, 1)

	r = Check(rect(0, 0, 10, 10), false, 0.01)
	assert.False(t, r.Closed)
	assert.False(t, r.OK())
}

func TestTrimEar(t *testing.T) {
	ring := Resample(rect(0, 0, 10, 10), 40)
	near := model.Pt(10, 10)
	p0, n := model.Pt(8, 8), model.Pt(1, 1)

	out, removed, err := TrimEar(ring, near, p0, n, 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.InDelta(t, 92, Area(out), 1e-9)
	assert.True(t, IsSimple(out))
	assert.Equal(t, IsCCW(ring), IsCCW(out))

	_, _, err = TrimEar(ring, near, p0, n, 2)
	assert.ErrorIs(t, err, ErrNotLocal)

	// A line that misses the point leaves the ring alone.
	out, removed, err = TrimEar(ring, near, model.Pt(20, 20), n, 5)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, out, len(ring))
}

func TestTrimEar_KeepsFarSide(t *testing.T) {
	// The U's left arm also reaches past the line, but only the ear around
	// the right arm's tip is removed.
	u := Resample([]model.Point{
		model.Pt(0, 0), model.Pt(30, 0), model.Pt(30, 30), model.Pt(20, 30),
		model.Pt(20, 10), model.Pt(10, 10), model.Pt(10, 30), model.Pt(0, 30),
	}, 160)
	out, removed, err := TrimEar(u, model.Pt(30, 30), model.Pt(0, 25), model.Pt(0, 1), 50)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.InDelta(t, 700-50, Area(out), 1e-9)
	assert.InDelta(t, 30, Bounds(out).Max.Y, 1e-9)
}
