package geometry

import (
	"math"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Flattening limits.
const (
	// minTolerance is the smallest accepted chord tolerance.
	minTolerance = 1e-6

	// minArcSegments is the minimum number of segments for an ARC or
	// CIRCLE entity, regardless of tolerance.
	minArcSegments = 64

	// tinyArcSegments is used when the radius is not larger than the
	// tolerance and the sagitta rule breaks down.
	tinyArcSegments = 128

	// minStepRad bounds the angular step from below so a huge tolerance
	// cannot produce a zero-step division.
	minStepRad = 1e-3

	// maxSplineDepth bounds adaptive spline subdivision.
	maxSplineDepth = 18
)

// skipTypes are annotation entities that never contribute to an outline.
var skipTypes = map[string]bool{
	"TEXT":      true,
	"MTEXT":     true,
	"DIMENSION": true,
	"HATCH":     true,
}

// Skippable reports whether an entity type is annotation that flattening
// ignores.
func Skippable(typ string) bool {
	return skipTypes[typ]
}

// arcSegments returns the number of segments for a sweep (radians) on a
// circle of radius r so that the sagitta stays below tol.
func arcSegments(r, sweep, tol float64, minSegs int) int {
	if r <= tol {
		return tinyArcSegments
	}
	step := 2 * math.Acos(math.Max(-1, math.Min(1, 1-tol/r)))
	n := int(math.Ceil(math.Abs(sweep) / math.Max(step, minStepRad)))
	if n < minSegs {
		n = minSegs
	}
	return n
}

// SampleArc returns points along a counter-clockwise arc from a0 to a1
// (degrees). When a1 < a0 the arc wraps through 360. Both end points are
// included.
func SampleArc(center model.Point, r, a0Deg, a1Deg, tol float64) []model.Point {
	tol = math.Max(tol, minTolerance)
	a0 := a0Deg * math.Pi / 180
	a1 := a1Deg * math.Pi / 180
	if a1 < a0 {
		a1 += 2 * math.Pi
	}
	return sweepArc(center, r, a0, a1-a0, arcSegments(r, a1-a0, tol, minArcSegments))
}

// sweepArc samples n segments starting at angle a0 (radians) for a signed
// sweep.
func sweepArc(center model.Point, r, a0, sweep float64, n int) []model.Point {
	pts := make([]model.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + sweep*float64(i)/float64(n)
		pts = append(pts, model.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return pts
}

// BulgeArc returns the points of the arc between p0 and p1 described by a
// polyline bulge, excluding p0 and including p1. A zero bulge yields
// just p1.
func BulgeArc(p0, p1 model.Point, bulge, tol float64) []model.Point {
	chord := p0.Dist(p1)
	if math.Abs(bulge) < 1e-12 || chord < 1e-12 {
		return []model.Point{p1}
	}
	tol = math.Max(tol, minTolerance)

	// Included angle and the signed distance from the chord midpoint to
	// the center, measured along the chord's left normal.
	theta := 4 * math.Atan(bulge)
	r := math.Abs(chord / (2 * math.Sin(theta/2)))
	h := chord / 2 * (1 - bulge*bulge) / (2 * bulge)

	dir := p1.Sub(p0).Scale(1 / chord)
	center := p0.Lerp(p1, 0.5).Add(dir.Perp().Scale(h))

	a0 := math.Atan2(p0.Y-center.Y, p0.X-center.X)
	n := arcSegments(r, theta, tol, 2)
	pts := sweepArc(center, r, a0, theta, n)
	pts[len(pts)-1] = p1
	return pts[1:]
}

// SampleBulgedPolyline expands a polyline with bulges into points. For a
// closed polyline the closing segment (with the last vertex's bulge) is
// included and the start point is repeated at the end.
func SampleBulgedPolyline(vs []dxf.Vertex, closed bool, tol float64) []model.Point {
	if len(vs) == 0 {
		return nil
	}
	pts := []model.Point{vs[0].Point()}
	for i := 0; i+1 < len(vs); i++ {
		pts = append(pts, BulgeArc(vs[i].Point(), vs[i+1].Point(), vs[i].Bulge, tol)...)
	}
	if closed && len(vs) > 1 {
		last := vs[len(vs)-1]
		pts = append(pts, BulgeArc(last.Point(), vs[0].Point(), last.Bulge, tol)...)
	}
	return pts
}

// SampleEllipse samples an ellipse from startParam to endParam (radians).
// majorAxis is relative to center; ratio is minor/major.
func SampleEllipse(center, majorAxis model.Point, ratio, startParam, endParam, tol float64) []model.Point {
	tol = math.Max(tol, minTolerance)
	if endParam <= startParam {
		endParam += 2 * math.Pi
	}
	minorAxis := majorAxis.Perp().Scale(ratio)

	// The sharpest curvature sits at the ends of the major axis, with
	// radius b^2/a; using it keeps the whole ellipse within tolerance.
	a := majorAxis.Len()
	b := a * ratio
	rMin := a
	if a > 0 {
		rMin = b * b / a
	}
	n := arcSegments(rMin, endParam-startParam, tol, minArcSegments)

	pts := make([]model.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := startParam + (endParam-startParam)*float64(i)/float64(n)
		p := center.Add(majorAxis.Scale(math.Cos(t))).Add(minorAxis.Scale(math.Sin(t)))
		pts = append(pts, p)
	}
	return pts
}

// SampleSpline evaluates a (possibly rational) B-spline with de Boor's
// algorithm and subdivides adaptively until every chord is within tol of
// the curve. When the spline has no control points its fit points are
// returned as-is.
func SampleSpline(degree int, knots, weights []float64, ctrl, fit []model.Point, tol float64) []model.Point {
	if len(ctrl) == 0 {
		out := make([]model.Point, len(fit))
		copy(out, fit)
		return out
	}
	tol = math.Max(tol, minTolerance)
	if degree < 1 {
		degree = 3
	}
	if degree >= len(ctrl) {
		degree = len(ctrl) - 1
	}
	if degree < 1 {
		return []model.Point{ctrl[0]}
	}
	if len(knots) != len(ctrl)+degree+1 {
		knots = clampedUniformKnots(len(ctrl), degree)
	}
	if len(weights) != len(ctrl) {
		weights = nil
	}

	s := &spline{degree: degree, knots: knots, weights: weights, ctrl: ctrl}
	t0, t1 := knots[degree], knots[len(ctrl)]

	// Start from the distinct knot values inside the domain, each span
	// split in four so a wiggle inside one span is not missed.
	var params []float64
	for i := degree; i < len(ctrl); i++ {
		a, b := knots[i], knots[i+1]
		if b <= a {
			continue
		}
		for k := 0; k < 4; k++ {
			params = append(params, a+(b-a)*float64(k)/4)
		}
	}
	params = append(params, t1)
	if len(params) < 2 {
		params = []float64{t0, t1}
	}

	pts := []model.Point{s.eval(params[0])}
	for i := 1; i < len(params); i++ {
		pts = s.refine(pts, params[i-1], params[i], s.eval(params[i-1]), s.eval(params[i]), tol, 0)
	}
	return pts
}

// clampedUniformKnots builds an open uniform knot vector.
func clampedUniformKnots(n, degree int) []float64 {
	m := n + degree + 1
	knots := make([]float64, m)
	inner := n - degree
	for i := 0; i < m; i++ {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= n:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(inner)
		}
	}
	return knots
}

type spline struct {
	degree  int
	knots   []float64
	weights []float64
	ctrl    []model.Point
}

// span finds k with knots[k] <= t < knots[k+1] inside the valid domain.
func (s *spline) span(t float64) int {
	n := len(s.ctrl)
	if t >= s.knots[n] {
		k := n - 1
		for k > s.degree && s.knots[k] == s.knots[k+1] {
			k--
		}
		return k
	}
	k := s.degree
	for k < n-1 && t >= s.knots[k+1] {
		k++
	}
	return k
}

// eval computes the curve point at t using homogeneous de Boor.
func (s *spline) eval(t float64) model.Point {
	p := s.degree
	k := s.span(t)

	type hpoint struct{ x, y, w float64 }
	d := make([]hpoint, p+1)
	for j := 0; j <= p; j++ {
		c := s.ctrl[j+k-p]
		w := 1.0
		if s.weights != nil {
			w = s.weights[j+k-p]
		}
		d[j] = hpoint{c.X * w, c.Y * w, w}
	}

	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			i := j + k - p
			den := s.knots[i+p-r+1] - s.knots[i]
			alpha := 0.0
			if den != 0 {
				alpha = (t - s.knots[i]) / den
			}
			d[j] = hpoint{
				x: (1-alpha)*d[j-1].x + alpha*d[j].x,
				y: (1-alpha)*d[j-1].y + alpha*d[j].y,
				w: (1-alpha)*d[j-1].w + alpha*d[j].w,
			}
		}
	}

	if d[p].w == 0 {
		return model.Point{X: d[p].x, Y: d[p].y}
	}
	return model.Point{X: d[p].x / d[p].w, Y: d[p].y / d[p].w}
}

// refine appends the points between ta and tb (excluding a, including b),
// subdividing while the curve midpoint is further than tol from the chord.
func (s *spline) refine(pts []model.Point, ta, tb float64, a, b model.Point, tol float64, depth int) []model.Point {
	tm := 0.5 * (ta + tb)
	m := s.eval(tm)
	if depth < maxSplineDepth && DistanceToSegment(m, a, b) > tol {
		pts = s.refine(pts, ta, tm, a, m, tol, depth+1)
		return s.refine(pts, tm, tb, m, b, tol, depth+1)
	}
	return append(pts, b)
}

// FlattenEntity converts one DXF entity into points. Unsupported and
// annotation entities yield nil. Entities whose extrusion points down -Z
// are mirrored into world coordinates.
func FlattenEntity(e *dxf.Entity, tol float64) []model.Point {
	var pts []model.Point

	switch e.Type {
	case dxf.TypeLine:
		return []model.Point{e.Start, e.End}
	case dxf.TypeArc:
		pts = SampleArc(e.Center, e.Radius, e.StartAngle, e.EndAngle, tol)
	case dxf.TypeCircle:
		pts = SampleArc(e.Center, e.Radius, 0, 360, tol)
	case dxf.TypeLWPolyline, dxf.TypePolyline:
		pts = SampleBulgedPolyline(e.Vertices, e.Closed, tol)
	case dxf.TypeSpline:
		pts = SampleSpline(e.Degree, e.Knots, e.Weights, e.ControlPoints, e.FitPoints, tol)
		if e.Closed && len(pts) > 1 && pts[0] != pts[len(pts)-1] {
			pts = append(pts, pts[0])
		}
		// SPLINE and ELLIPSE are stored in world coordinates.
		return pts
	case dxf.TypeEllipse:
		return SampleEllipse(e.Center, e.MajorAxis, e.Ratio, e.StartParam, e.EndParam, tol)
	default:
		return nil
	}

	if e.Mirrored() {
		pts = Transform(pts, func(p model.Point) model.Point { return model.Point{X: -p.X, Y: p.Y} })
	}
	return pts
}
