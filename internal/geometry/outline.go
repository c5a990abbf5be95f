package geometry

import (
	"errors"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// ErrNoClosedOutline is returned when a drawing has no closed LWPOLYLINE.
var ErrNoClosedOutline = errors.New("no closed LWPOLYLINE found; the outline must be a single closed polyline")

// Outline is a closed LWPOLYLINE picked from a drawing, as a ring.
type Outline struct {
	// Ring is the flattened outline without a repeated end point.
	Ring []model.Point

	// Index is the position of the source entity in Drawing.Entities.
	Index int

	// Layer and Color are copied from the source entity.
	Layer string
	Color int
}

// Outlines returns every closed LWPOLYLINE of the drawing as a ring, in
// file order. A polyline counts as closed when it carries the closed flag
// or when its first and last vertex coincide. Bulges are expanded with the
// chord tolerance tol.
func Outlines(d *dxf.Drawing, tol float64) []Outline {
	var out []Outline
	for i := range d.Entities {
		e := &d.Entities[i]
		if e.Type != dxf.TypeLWPolyline || len(e.Vertices) < 3 {
			continue
		}
		first, last := e.Vertices[0].Point(), e.Vertices[len(e.Vertices)-1].Point()
		if !e.Closed && first != last {
			continue
		}
		ring := ToRing(FlattenEntity(e, tol), dedupeEpsilon)
		if len(ring) < 3 {
			continue
		}
		out = append(out, Outline{Ring: ring, Index: i, Layer: e.Layer, Color: e.Color})
	}
	return out
}

// LargestOutline picks the closed LWPOLYLINE with the largest bounding box
// area. Ties go to the one that comes first in the file.
func LargestOutline(d *dxf.Drawing, tol float64) (Outline, error) {
	var best Outline
	bestScore := -1.0
	for _, o := range Outlines(d, tol) {
		if score := Bounds(o.Ring).Area(); score > bestScore {
			best, bestScore = o, score
		}
	}
	if bestScore < 0 {
		return Outline{}, ErrNoClosedOutline
	}
	return best, nil
}
