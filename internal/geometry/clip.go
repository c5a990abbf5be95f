package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// ErrEmptyClip is returned when nothing of the ring remains on the kept
// side of a line.
var ErrEmptyClip = errors.New("clipping produced empty geometry")

// node is a ring vertex or an inserted line crossing during splitting.
type node struct {
	p       model.Point
	keep    bool    // vertex on the kept side (crossings are always kept)
	cross   bool    // inserted crossing on the cut line
	exit    bool    // crossing where the ring leaves the kept side
	along   float64 // position along the cut line (crossings only)
	partner int     // index of the paired crossing (crossings only)
}

// SplitHalfPlane returns the pieces of a simple ring that lie on the side
// of the line through p0 where (x-p0)·nOut <= 0. Pieces are sorted by area,
// largest first, and keep the input winding.
//
// The ring is walked once with the line crossings inserted. Sorting the
// crossings along the line pairs them into the chords that lie inside the
// ring; each piece follows the ring on the kept side and jumps along a
// chord whenever the ring leaves that side.
func SplitHalfPlane(ring []model.Point, p0, nOut model.Point) ([][]model.Point, error) {
	ring = ToRing(ring, dedupeEpsilon)
	if len(ring) < 3 {
		return nil, ErrDegenerateRing
	}
	n := nOut.Normalize()
	if n == (model.Point{}) {
		return nil, fmt.Errorf("clip normal must not be zero")
	}
	tangent := n.Perp()

	side := make([]float64, len(ring))
	allKept, noneKept := true, true
	for i, p := range ring {
		side[i] = p.Sub(p0).Dot(n)
		if side[i] <= 0 {
			noneKept = false
		} else {
			allKept = false
		}
	}
	if noneKept {
		return nil, ErrEmptyClip
	}
	if allKept {
		return [][]model.Point{append([]model.Point(nil), ring...)}, nil
	}

	// Build the augmented node list.
	var nodes []node
	var crossings []int
	count := len(ring)
	for i := 0; i < count; i++ {
		j := (i + 1) % count
		a, b := ring[i], ring[j]
		sa, sb := side[i], side[j]
		nodes = append(nodes, node{p: a, keep: sa <= 0})

		if (sa <= 0) != (sb <= 0) {
			t := sa / (sa - sb)
			x := a.Lerp(b, t)
			crossings = append(crossings, len(nodes))
			nodes = append(nodes, node{
				p:     x,
				keep:  true,
				cross: true,
				exit:  sa <= 0,
				along: x.Sub(p0).Dot(tangent),
			})
		}
	}

	if len(crossings)%2 != 0 {
		return nil, fmt.Errorf("line crosses the outline an odd number of times (%d); outline is not closed or not simple", len(crossings))
	}

	sort.SliceStable(crossings, func(a, b int) bool {
		return nodes[crossings[a]].along < nodes[crossings[b]].along
	})
	for k := 0; k+1 < len(crossings); k += 2 {
		a, b := crossings[k], crossings[k+1]
		nodes[a].partner = b
		nodes[b].partner = a
	}

	visited := make([]bool, len(nodes))
	var pieces [][]model.Point
	for start := range nodes {
		if visited[start] || !nodes[start].keep || nodes[start].cross {
			continue
		}

		var piece []model.Point
		cur := start
		for guard := 0; guard <= 2*len(nodes); guard++ {
			visited[cur] = true
			piece = append(piece, nodes[cur].p)

			var next int
			if nodes[cur].cross && nodes[cur].exit {
				partner := nodes[cur].partner
				visited[partner] = true
				piece = append(piece, nodes[partner].p)
				next = (partner + 1) % len(nodes)
			} else {
				next = (cur + 1) % len(nodes)
			}
			if next == start {
				break
			}
			cur = next
		}

		piece = ToRing(piece, dedupeEpsilon)
		if len(piece) >= 3 && Area(piece) > 1e-9 {
			pieces = append(pieces, piece)
		}
	}

	if len(pieces) == 0 {
		return nil, ErrEmptyClip
	}
	sort.SliceStable(pieces, func(a, b int) bool {
		return Area(pieces[a]) > Area(pieces[b])
	})
	return pieces, nil
}

// ClipHalfPlane keeps the part of the ring where (x-p0)·nOut <= 0. When the
// line cuts the ring into several pieces the largest one is returned.
func ClipHalfPlane(ring []model.Point, p0, nOut model.Point) ([]model.Point, error) {
	pieces, err := SplitHalfPlane(ring, p0, nOut)
	if err != nil {
		return nil, err
	}
	return pieces[0], nil
}

// SplitByLine cuts a ring along the line through p0 with direction dir and
// returns the largest piece on each side, larger piece first.
func SplitByLine(ring []model.Point, p0, dir model.Point) ([]model.Point, []model.Point, error) {
	n := dir.Perp()
	left, err := ClipHalfPlane(ring, p0, n)
	if err != nil {
		return nil, nil, fmt.Errorf("split: %w", err)
	}
	right, err := ClipHalfPlane(ring, p0, n.Scale(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("split: %w", err)
	}
	if Area(right) > Area(left) {
		left, right = right, left
	}
	return left, right, nil
}

// ErrNotLocal is returned by TrimEar when the cut line does not close off
// the ear around the given point within the allowed walk.
var ErrNotLocal = errors.New("cut line does not trim locally")

// TrimEar removes the stretch of the ring around near that lies on the
// outer side ((x-p0)·nOut > 0) of the cut line, replacing it with the
// chord along the line. Unlike ClipHalfPlane the rest of the ring is kept
// even where it also reaches past the line.
//
// The walk from near in each direction is limited to maxWalk millimetres
// of outline; ErrNotLocal is returned when no crossing is found within it.
// When near itself is on the kept side the ring is returned unchanged with
// removed == false.
func TrimEar(ring []model.Point, near, p0, nOut model.Point, maxWalk float64) (out []model.Point, removed bool, err error) {
	ring = ToRing(ring, dedupeEpsilon)
	n := len(ring)
	if n < 3 {
		return nil, false, ErrDegenerateRing
	}
	normal := nOut.Normalize()
	side := func(i int) float64 {
		return ring[((i%n)+n)%n].Sub(p0).Dot(normal)
	}
	at := func(i int) model.Point { return ring[((i%n)+n)%n] }

	start := 0
	best := math.Inf(1)
	for i, p := range ring {
		if d := p.DistSq(near); d < best {
			best, start = d, i
		}
	}
	if side(start) <= 0 {
		return append([]model.Point(nil), ring...), false, nil
	}

	// Walk back to the first removed vertex.
	first, walked := start, 0.0
	for side(first-1) > 0 {
		walked += at(first).Dist(at(first - 1))
		first--
		if walked > maxWalk || start-first >= n-1 {
			return nil, false, ErrNotLocal
		}
	}
	// Walk forward to the last removed vertex.
	last := start
	walked = 0
	for side(last+1) > 0 {
		walked += at(last).Dist(at(last + 1))
		last++
		if walked > maxWalk || last-first >= n-1 {
			return nil, false, ErrNotLocal
		}
	}

	cross := func(a, b int) model.Point {
		sa, sb := side(a), side(b)
		return at(a).Lerp(at(b), sa/(sa-sb))
	}
	entry := cross(first-1, first)
	exit := cross(last, last+1)

	kept := n - (last - first + 1)
	out = make([]model.Point, 0, kept+2)
	out = append(out, exit)
	for i := last + 1; i <= last+kept; i++ {
		out = append(out, at(i))
	}
	out = append(out, entry)

	out = ToRing(out, dedupeEpsilon)
	if len(out) < 3 || Area(out) < 1e-12 {
		return nil, false, ErrDegenerateRing
	}
	return out, true, nil
}
