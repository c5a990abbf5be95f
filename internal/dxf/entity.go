package dxf

import (
	"sort"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// Entity type names as they appear after group code 0.
const (
	TypeLine       = "LINE"
	TypeArc        = "ARC"
	TypeCircle     = "CIRCLE"
	TypeLWPolyline = "LWPOLYLINE"
	TypePolyline   = "POLYLINE"
	TypeSpline     = "SPLINE"
	TypeEllipse    = "ELLIPSE"
)

// Units values for $INSUNITS that the tool cares about.
const (
	UnitsUnitless   = 0
	UnitsInches     = 1
	UnitsMillimeter = 4
)

// VersionR2000 is the $ACADVER string for DXF R2000.
const VersionR2000 = "AC1015"

// Vertex is a polyline vertex with its bulge. The bulge is the tangent of a
// quarter of the included angle of the arc to the next vertex; zero means a
// straight segment, positive means counter-clockwise.
type Vertex struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Bulge float64 `json:"bulge,omitempty" yaml:"bulge,omitempty"`
}

// Point returns the vertex position without the bulge.
func (v Vertex) Point() model.Point {
	return model.Point{X: v.X, Y: v.Y}
}

// Entity is one drawing entity. Only the fields relevant to Type are
// populated; the rest stay at their zero values.
type Entity struct {
	// Type is the DXF entity name (LINE, ARC, ...).
	Type string

	// Handle is the hex handle from group code 5, if present.
	Handle string

	// Layer is the layer name from group code 8. Defaults to "0".
	Layer string

	// Color is the ACI color from group code 62. 256 (BYLAYER) when absent.
	Color int

	// Extrusion is the extrusion direction (210/220/230). ARC, CIRCLE and
	// LWPOLYLINE coordinates are in the object coordinate system defined by
	// it; (0,0,-1) mirrors X, which is how many CAD exports flip outlines.
	Extrusion [3]float64

	// LINE
	Start model.Point
	End   model.Point

	// ARC, CIRCLE, ELLIPSE
	Center     model.Point
	Radius     float64
	StartAngle float64 // degrees
	EndAngle   float64 // degrees

	// LWPOLYLINE, POLYLINE
	Vertices []Vertex
	Closed   bool

	// SPLINE
	Degree        int
	Knots         []float64
	Weights       []float64
	ControlPoints []model.Point
	FitPoints     []model.Point

	// ELLIPSE: MajorAxis is relative to Center, Ratio is minor/major,
	// StartParam/EndParam are in radians.
	MajorAxis  model.Point
	Ratio      float64
	StartParam float64
	EndParam   float64
}

// newEntity returns an entity with the DXF defaults applied.
func newEntity(typ string) *Entity {
	return &Entity{
		Type:      typ,
		Layer:     "0",
		Color:     256,
		Extrusion: [3]float64{0, 0, 1},
	}
}

// Mirrored reports whether the entity's OCS flips the X axis, i.e. the
// extrusion points down the negative Z axis.
func (e *Entity) Mirrored() bool {
	return e.Extrusion[2] < 0
}

// Drawing is a parsed DXF file.
type Drawing struct {
	// Version is the $ACADVER header value (e.g. "AC1015"). Empty if absent.
	Version string

	// Units is the $INSUNITS header value. UnitsUnitless if absent.
	Units int

	// Entities holds the model space entities in file order.
	Entities []Entity
}

// NewDrawing returns an empty millimetre drawing targeting DXF R2000.
func NewDrawing() *Drawing {
	return &Drawing{Version: VersionR2000, Units: UnitsMillimeter}
}

// AddPolyline appends a polyline as an LWPOLYLINE entity.
func (d *Drawing) AddPolyline(pl model.Polyline) {
	e := newEntity(TypeLWPolyline)
	if pl.Layer != "" {
		e.Layer = pl.Layer
	}
	if pl.Color != 0 {
		e.Color = pl.Color
	}
	e.Closed = pl.Closed
	e.Vertices = make([]Vertex, len(pl.Points))
	for i, p := range pl.Points {
		e.Vertices[i] = Vertex{X: p.X, Y: p.Y}
	}
	d.Entities = append(d.Entities, *e)
}

// AddCircle appends a CIRCLE entity.
func (d *Drawing) AddCircle(c model.Circle) {
	e := newEntity(TypeCircle)
	if c.Layer != "" {
		e.Layer = c.Layer
	}
	e.Center = c.Center
	e.Radius = c.Radius
	d.Entities = append(d.Entities, *e)
}

// AddLine appends a LINE entity.
func (d *Drawing) AddLine(start, end model.Point, layer string) {
	e := newEntity(TypeLine)
	if layer != "" {
		e.Layer = layer
	}
	e.Start = start
	e.End = end
	d.Entities = append(d.Entities, *e)
}

// LWPolylines returns pointers to the LWPOLYLINE entities in file order.
func (d *Drawing) LWPolylines() []*Entity {
	var out []*Entity
	for i := range d.Entities {
		if d.Entities[i].Type == TypeLWPolyline {
			out = append(out, &d.Entities[i])
		}
	}
	return out
}

// TypeCount is one row of an entity histogram.
type TypeCount struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// Counts returns the number of entities per type, most common first.
// Ties are broken alphabetically so the output is deterministic.
func (d *Drawing) Counts() []TypeCount {
	byType := make(map[string]int)
	for _, e := range d.Entities {
		byType[e.Type]++
	}

	counts := make([]TypeCount, 0, len(byType))
	for typ, n := range byType {
		counts = append(counts, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})
	return counts
}
