package pipeline

import (
	"math"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/measure"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// OrientStats describes an orient step.
type OrientStats struct {
	Orientation measure.Orientation `json:"orientation" yaml:"orientation"`
	Before      geometry.BBox       `json:"before" yaml:"before"`
	After       geometry.BBox       `json:"after" yaml:"after"`

	// Flattened counts entities that could not be moved exactly (splines,
	// ellipses, mirrored entities) and were written as polylines.
	Flattened int `json:"flattened" yaml:"flattened"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Orient places the drawing so the body lies along X with the neck at +X
// and its bounding box centred on the origin. The placement is computed
// from the selected outline and applied to every entity.
func Orient(d *dxf.Drawing, tol float64) (*dxf.Drawing, OrientStats, error) {
	var st OrientStats
	outline, err := SelectOutline(d, tol)
	if err != nil {
		return nil, st, err
	}
	o, err := measure.Orient(outline.Ring)
	if err != nil {
		return nil, st, err
	}
	st.Orientation = o
	st.Before = geometry.Bounds(outline.Ring)
	st.After = geometry.Bounds(o.ApplyAll(outline.Ring))

	out := dxf.NewDrawing()
	for i := range d.Entities {
		e := d.Entities[i]
		switch {
		case geometry.Skippable(e.Type):
			st.Skipped++
			continue
		case e.Type == dxf.TypeLine:
			e.Start, e.End = o.Apply(e.Start), o.Apply(e.End)
		case e.Mirrored():
			// OCS entities are flattened into world coordinates below.
			if !placeFlattened(out, &e, o, tol) {
				st.Skipped++
			} else {
				st.Flattened++
			}
			continue
		case e.Type == dxf.TypeCircle:
			e.Center = o.Apply(e.Center)
		case e.Type == dxf.TypeArc:
			e.Center = o.Apply(e.Center)
			e.StartAngle = math.Mod(e.StartAngle+float64(o.RotationDeg), 360)
			e.EndAngle = math.Mod(e.EndAngle+float64(o.RotationDeg), 360)
		case e.Type == dxf.TypeLWPolyline:
			// Rotations keep the winding, so bulges stay as they are.
			vs := make([]dxf.Vertex, len(e.Vertices))
			for j, v := range e.Vertices {
				p := o.Apply(v.Point())
				vs[j] = dxf.Vertex{X: p.X, Y: p.Y, Bulge: v.Bulge}
			}
			e.Vertices = vs
		default:
			if !placeFlattened(out, &e, o, tol) {
				st.Skipped++
			} else {
				st.Flattened++
			}
			continue
		}
		out.Entities = append(out.Entities, e)
	}
	return out, st, nil
}

// placeFlattened samples e, places the points and adds them to out as an
// LWPOLYLINE. It reports false when e yields no geometry.
func placeFlattened(out *dxf.Drawing, e *dxf.Entity, o measure.Orientation, tol float64) bool {
	pts := geometry.Dedupe(geometry.FlattenEntity(e, tol))
	if len(pts) < 2 {
		return false
	}
	closed := geometry.IsClosed(pts, tol)
	if closed {
		pts = geometry.ToRing(pts, tol)
	}
	out.AddPolyline(model.Polyline{
		Points: o.ApplyAll(pts),
		Closed: closed,
		Layer:  e.Layer,
		Color:  e.Color,
	})
	return true
}
