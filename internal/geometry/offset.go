package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// miterLimit caps how far (in multiples of the offset distance) a mitered
// concave vertex may move before it is rounded instead.
const miterLimit = 4.0

// roundJoinStep is the largest angle (radians) one segment of a round join
// may span, keeping the chord within 0.2 % of d.
const roundJoinStep = math.Pi / 24

// parallelEpsilon is the |sin| below which two edges count as parallel.
const parallelEpsilon = 1e-9

// ErrDegenerateRing is returned when a ring has fewer than three distinct
// points or no area.
var ErrDegenerateRing = errors.New("ring is degenerate (fewer than 3 points or zero area)")

// OffsetInward shrinks a ring by d millimetres. The direction is derived
// from the ring's winding, so clockwise and counter-clockwise outlines
// both shrink. The result keeps the input's winding.
//
// Each edge is shifted along its inward normal and neighbouring shifted
// edges are intersected (mitered). At a convex vertex the miter is the
// exact offset corner however far it lies. At a concave vertex the exact
// offset is an arc of radius d about the vertex; a miter longer than
// miterLimit*d is replaced by that arc. Small loops created where the
// outline curves tighter than d are cut out afterwards.
func OffsetInward(ring []model.Point, d float64) ([]model.Point, error) {
	if d < 0 {
		return nil, fmt.Errorf("offset distance must not be negative, got %g", d)
	}
	ring = ToRing(ring, dedupeEpsilon)
	if len(ring) < 3 || Area(ring) < 1e-12 {
		return nil, ErrDegenerateRing
	}
	if d == 0 {
		return append([]model.Point(nil), ring...), nil
	}

	// For a CCW ring the interior is to the left of every edge.
	side := 1.0
	if !IsCCW(ring) {
		side = -1.0
	}

	n := len(ring)
	normals := make([]model.Point, n)
	for i := 0; i < n; i++ {
		dir := ring[(i+1)%n].Sub(ring[i]).Normalize()
		normals[i] = dir.Perp().Scale(side)
	}

	out := make([]model.Point, 0, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		p := ring[i]

		// Offset lines: prev edge through p+nPrev*d with direction dPrev,
		// current edge through p+nCur*d with direction dCur.
		nPrev, nCur := normals[prev], normals[i]
		aPrev := p.Add(nPrev.Scale(d))
		aCur := p.Add(nCur.Scale(d))
		dPrev := p.Sub(ring[prev]).Normalize()
		dCur := ring[(i+1)%n].Sub(p).Normalize()

		denom := dPrev.Cross(dCur)
		if math.Abs(denom) < parallelEpsilon {
			out = append(out, aCur)
			continue
		}
		t := aCur.Sub(aPrev).Cross(dCur) / denom
		miter := aPrev.Add(dPrev.Scale(t))

		convex := denom*side > 0
		if !convex && miter.Dist(p) > miterLimit*d {
			out = append(out, roundJoin(p, nPrev, nCur, d)...)
			continue
		}
		out = append(out, miter)
	}

	out = RemoveLoops(Dedupe(out))
	if len(out) < 3 || Area(out) < 1e-12 {
		return nil, fmt.Errorf("offset of %g mm collapses the outline: %w", d, ErrDegenerateRing)
	}
	if IsCCW(out) != IsCCW(ring) {
		// The whole outline inverted: it is thinner than 2*d somewhere
		// along its entire length.
		return nil, fmt.Errorf("offset of %g mm inverts the outline: %w", d, ErrDegenerateRing)
	}
	return out, nil
}

// roundJoin returns the arc of radius d about p from p+nPrev*d to
// p+nCur*d, turning the short way round.
func roundJoin(p, nPrev, nCur model.Point, d float64) []model.Point {
	a0 := math.Atan2(nPrev.Y, nPrev.X)
	sweep := math.Atan2(nPrev.Cross(nCur), nPrev.Dot(nCur))
	n := int(math.Ceil(math.Abs(sweep) / roundJoinStep))
	if n < 1 {
		n = 1
	}
	return sweepArc(p, d, a0, sweep, n)
}

// RemoveLoops cuts out the small loops a ring develops where two of its
// edges cross. For every crossing the shorter of the two arcs between the
// crossing edges is removed and replaced by the crossing point. It repeats
// until the ring is simple or no progress is made.
func RemoveLoops(ring []model.Point) []model.Point {
	for iter := 0; iter < len(ring); iter++ {
		x, ok := firstCrossing(ring)
		if !ok {
			return ring
		}
		n := len(ring)
		i, j := x.EdgeA, x.EdgeB // i < j

		// Arc i+1..j (inner) versus arc j+1..i (wrapping).
		inner := j - i
		if inner <= n-inner {
			next := make([]model.Point, 0, n-inner+1)
			next = append(next, ring[:i+1]...)
			next = append(next, x.Point)
			next = append(next, ring[j+1:]...)
			ring = next
		} else {
			next := make([]model.Point, 0, inner+1)
			next = append(next, x.Point)
			next = append(next, ring[i+1:j+1]...)
			ring = next
		}
		if len(ring) < 3 {
			return ring
		}
	}
	return ring
}
