package geometry

import (
	"math"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// Crossing is a proper intersection between two non-adjacent ring edges.
// EdgeA < EdgeB; edge k runs from ring[k] to ring[(k+1)%n].
type Crossing struct {
	EdgeA int         `json:"edgeA" yaml:"edgeA"`
	EdgeB int         `json:"edgeB" yaml:"edgeB"`
	Point model.Point `json:"point" yaml:"point"`
}

// SegmentIntersection returns the intersection point of segments ab and
// cd when they cross. Touching at end points and collinear overlaps are
// not reported: a polyline's neighbouring edges always touch.
func SegmentIntersection(a, b, c, d model.Point) (model.Point, bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := r.Cross(s)
	if math.Abs(denom) < 1e-15 {
		return model.Point{}, false
	}
	ca := c.Sub(a)
	t := ca.Cross(s) / denom
	u := ca.Cross(r) / denom

	const eps = 1e-12
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return model.Point{}, false
	}
	return a.Add(r.Scale(t)), true
}

// edgeBoxes precomputes per-edge bounding boxes for the pair scan.
func edgeBoxes(ring []model.Point) []BBox {
	n := len(ring)
	boxes := make([]BBox, n)
	for i := 0; i < n; i++ {
		boxes[i] = Bounds([]model.Point{ring[i], ring[(i+1)%n]})
	}
	return boxes
}

func boxesOverlap(a, b BBox) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X && a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// scanCrossings calls fn for every crossing until fn returns false.
func scanCrossings(ring []model.Point, fn func(Crossing) bool) {
	n := len(ring)
	if n < 4 {
		return
	}
	boxes := edgeBoxes(ring)
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			if !boxesOverlap(boxes[i], boxes[j]) {
				continue
			}
			p, ok := SegmentIntersection(ring[i], ring[(i+1)%n], ring[j], ring[(j+1)%n])
			if !ok {
				continue
			}
			if !fn(Crossing{EdgeA: i, EdgeB: j, Point: p}) {
				return
			}
		}
	}
}

// firstCrossing returns the first crossing found, if any.
func firstCrossing(ring []model.Point) (Crossing, bool) {
	var found Crossing
	ok := false
	scanCrossings(ring, func(c Crossing) bool {
		found, ok = c, true
		return false
	})
	return found, ok
}

// SelfIntersections returns up to limit crossings of the ring. A limit of
// zero or less returns all of them.
func SelfIntersections(ring []model.Point, limit int) []Crossing {
	var out []Crossing
	scanCrossings(ring, func(c Crossing) bool {
		out = append(out, c)
		return limit <= 0 || len(out) < limit
	})
	return out
}

// IsSimple reports whether the ring has no self-intersections.
func IsSimple(ring []model.Point) bool {
	_, crossed := firstCrossing(ring)
	return !crossed
}
