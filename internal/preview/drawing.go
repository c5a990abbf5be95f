package preview

import (
	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// FromDrawing converts the entities of d into what Render draws. Circles
// stay circles (drawn as pins); everything else that can be flattened
// becomes a polyline in its own color. Annotation entities are dropped.
func FromDrawing(d *dxf.Drawing, tol float64) ([]model.Polyline, []model.Circle) {
	var polys []model.Polyline
	var circles []model.Circle
	for i := range d.Entities {
		e := &d.Entities[i]
		if geometry.Skippable(e.Type) {
			continue
		}
		if e.Type == dxf.TypeCircle {
			c := e.Center
			if e.Mirrored() {
				c.X = -c.X
			}
			circles = append(circles, model.Circle{Center: c, Radius: e.Radius, Layer: e.Layer})
			continue
		}

		pts := geometry.Dedupe(geometry.FlattenEntity(e, tol))
		if len(pts) < 2 {
			continue
		}
		closed := geometry.IsClosed(pts, tol)
		if closed {
			pts = geometry.ToRing(pts, tol)
		}
		polys = append(polys, model.Polyline{Points: pts, Closed: closed, Layer: e.Layer, Color: e.Color})
	}
	return polys, circles
}
