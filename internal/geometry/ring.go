package geometry

import (
	"math"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// dedupeEpsilon is the Manhattan distance below which consecutive points
// are considered duplicates.
const dedupeEpsilon = 1e-10

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min model.Point `json:"min" yaml:"min"`
	Max model.Point `json:"max" yaml:"max"`
}

// Width returns the X extent.
func (b BBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the Y extent.
func (b BBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Center returns the middle of the box.
func (b BBox) Center() model.Point {
	return model.Point{X: 0.5 * (b.Min.X + b.Max.X), Y: 0.5 * (b.Min.Y + b.Max.Y)}
}

// Area returns Width * Height.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Bounds returns the bounding box of pts. The zero BBox is returned for an
// empty slice.
func Bounds(pts []model.Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}

// SignedArea returns the shoelace area of a ring: positive for
// counter-clockwise winding, negative for clockwise.
func SignedArea(ring []model.Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].Cross(ring[j])
	}
	return 0.5 * sum
}

// Area returns the absolute area of a ring.
func Area(ring []model.Point) float64 {
	return math.Abs(SignedArea(ring))
}

// IsCCW reports whether the ring winds counter-clockwise.
func IsCCW(ring []model.Point) bool {
	return SignedArea(ring) > 0
}

// Perimeter returns the length of the ring including the closing edge.
func Perimeter(ring []model.Point) float64 {
	n := len(ring)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += ring[i].Dist(ring[(i+1)%n])
	}
	return sum
}

// PathLength returns the length of an open path.
func PathLength(path []model.Point) float64 {
	var sum float64
	for i := 1; i < len(path); i++ {
		sum += path[i-1].Dist(path[i])
	}
	return sum
}

// Dedupe drops consecutive points that coincide within dedupeEpsilon
// (Manhattan distance). The input slice is not modified.
func Dedupe(pts []model.Point) []model.Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]model.Point, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		last := out[len(out)-1]
		if math.Abs(p.X-last.X)+math.Abs(p.Y-last.Y) > dedupeEpsilon {
			out = append(out, p)
		}
	}
	return out
}

// IsClosed reports whether the first and last point of a path coincide
// within tol.
func IsClosed(path []model.Point, tol float64) bool {
	if len(path) < 3 {
		return false
	}
	return path[0].DistSq(path[len(path)-1]) <= tol*tol
}

// ToRing turns a closed path into a ring: duplicates are removed and a
// repeated closing point is dropped.
func ToRing(path []model.Point, tol float64) []model.Point {
	ring := Dedupe(path)
	for len(ring) > 1 && ring[0].DistSq(ring[len(ring)-1]) <= tol*tol {
		ring = ring[:len(ring)-1]
	}
	return ring
}

// Reverse returns the points in reverse order.
func Reverse(pts []model.Point) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// Transform applies fn to every point and returns the new slice.
func Transform(pts []model.Point, fn func(model.Point) model.Point) []model.Point {
	out := make([]model.Point, len(pts))
	for i, p := range pts {
		out[i] = fn(p)
	}
	return out
}

// Contains reports whether p lies inside the ring (even-odd rule).
// Points exactly on the boundary may go either way.
func Contains(ring []model.Point, p model.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceToSegment returns the distance from p to the segment ab.
func DistanceToSegment(p, a, b model.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}

// DistanceToRing returns the distance from p to the nearest edge of ring.
func DistanceToRing(ring []model.Point, p model.Point) float64 {
	best := math.Inf(1)
	n := len(ring)
	for i := 0; i < n; i++ {
		d := DistanceToSegment(p, ring[i], ring[(i+1)%n])
		if d < best {
			best = d
		}
	}
	return best
}
