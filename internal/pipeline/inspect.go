package pipeline

import (
	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// maxInspectedPolylines caps the LWPOLYLINEs listed by Inspect.
const maxInspectedPolylines = 10

// PolylineSummary describes one LWPOLYLINE of a drawing.
type PolylineSummary struct {
	// Index is the position among the drawing's LWPOLYLINEs.
	Index int `json:"index" yaml:"index"`

	Closed   bool `json:"closed" yaml:"closed"`
	Vertices int  `json:"vertices" yaml:"vertices"`

	// Span is the bounding box size (width, height) of the vertices.
	Span model.Point `json:"span" yaml:"span"`

	// Mirrored is set when the extrusion points down -Z.
	Mirrored bool `json:"mirrored,omitempty" yaml:"mirrored,omitempty"`
}

// Inspection is a quick summary of a drawing.
type Inspection struct {
	Version  string          `json:"version,omitempty" yaml:"version,omitempty"`
	Units    int             `json:"units" yaml:"units"`
	Entities int             `json:"entities" yaml:"entities"`
	Counts   []dxf.TypeCount `json:"counts" yaml:"counts"`

	// LWPolylines is the total number of LWPOLYLINE entities; Polylines
	// lists at most the first ten.
	LWPolylines int               `json:"lwpolylines" yaml:"lwpolylines"`
	Polylines   []PolylineSummary `json:"polylines,omitempty" yaml:"polylines,omitempty"`
}

// Inspect counts the entities of a drawing and summarises its first
// LWPOLYLINEs, which tells whether the outline is already a polyline.
func Inspect(d *dxf.Drawing) Inspection {
	in := Inspection{
		Version:  d.Version,
		Units:    d.Units,
		Entities: len(d.Entities),
		Counts:   d.Counts(),
	}

	polys := d.LWPolylines()
	in.LWPolylines = len(polys)
	for i, e := range polys {
		if i >= maxInspectedPolylines {
			break
		}
		pts := make([]model.Point, len(e.Vertices))
		for j, v := range e.Vertices {
			pts[j] = v.Point()
		}
		b := geometry.Bounds(pts)
		in.Polylines = append(in.Polylines, PolylineSummary{
			Index:    i,
			Closed:   e.Closed,
			Vertices: len(e.Vertices),
			Span:     model.Pt(b.Width(), b.Height()),
			Mirrored: e.Mirrored(),
		})
	}
	return in
}
