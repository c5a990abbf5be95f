package pipeline

import (
	"errors"
	"fmt"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Colors of the two outlines in an offset drawing.
const (
	// SourceColor (white) marks the joined outline the offset was taken from.
	SourceColor = 7

	// OffsetColor (red) marks the inward offset, i.e. the mold outline.
	OffsetColor = 1
)

var (
	// ErrNothingFlattened is returned when no entity of a drawing could be
	// turned into points.
	ErrNothingFlattened = errors.New("no entities flattened; the drawing is empty or holds only unsupported entities")

	// ErrNoSegments is returned when a drawing has no LINE or LWPOLYLINE
	// to join.
	ErrNoSegments = errors.New("no LINE or LWPOLYLINE segments found")

	// ErrOpenOutline is returned when joined segments do not close.
	ErrOpenOutline = errors.New("joined outline is not closed")
)

// FlattenStats counts what Flatten did with each entity.
type FlattenStats struct {
	Flattened   int `json:"flattened" yaml:"flattened"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Unsupported int `json:"unsupported" yaml:"unsupported"`
	Points      int `json:"points" yaml:"points"`

	// LengthMM is the summed length of all flattened paths.
	LengthMM float64 `json:"lengthMm" yaml:"lengthMm"`
}

// Flatten samples every entity of d into an open LWPOLYLINE, one per
// entity, so joining can work on plain point lists. Annotation entities
// (TEXT, MTEXT, DIMENSION, HATCH) are skipped; entity types that cannot be
// sampled are counted as unsupported.
func Flatten(d *dxf.Drawing, tol float64) (*dxf.Drawing, FlattenStats, error) {
	out := dxf.NewDrawing()
	var st FlattenStats

	for i := range d.Entities {
		e := &d.Entities[i]
		if geometry.Skippable(e.Type) {
			st.Skipped++
			continue
		}
		pts := geometry.Dedupe(geometry.FlattenEntity(e, tol))
		if len(pts) < 2 {
			st.Unsupported++
			continue
		}
		out.AddPolyline(model.Polyline{Points: pts, Layer: e.Layer})
		st.Flattened++
		st.Points += len(pts)
		st.LengthMM += geometry.PathLength(pts)
	}

	if st.Flattened == 0 {
		return nil, st, ErrNothingFlattened
	}
	return out, st, nil
}

// Segments returns the LINE and LWPOLYLINE entities of d as point lists,
// in file order. Bulges are expanded with the chord tolerance tol.
func Segments(d *dxf.Drawing, tol float64) [][]model.Point {
	var segs [][]model.Point
	for i := range d.Entities {
		e := &d.Entities[i]
		if e.Type != dxf.TypeLine && e.Type != dxf.TypeLWPolyline {
			continue
		}
		if pts := geometry.Dedupe(geometry.FlattenEntity(e, tol)); len(pts) >= 2 {
			segs = append(segs, pts)
		}
	}
	return segs
}

// JoinStats describes a join.
type JoinStats struct {
	Segments int  `json:"segments" yaml:"segments"`
	Used     int  `json:"used" yaml:"used"`
	Leftover int  `json:"leftover" yaml:"leftover"`
	Closed   bool `json:"closed" yaml:"closed"`
	Points   int  `json:"points" yaml:"points"`

	// GapMM is the distance between the ends of a chain that did not close.
	GapMM float64 `json:"gapMm,omitempty" yaml:"gapMm,omitempty"`
}

// JoinOutline chains the segments of d into one ring. Leftover segments
// are reported in the stats and are not an error; a chain that does not
// close is.
func JoinOutline(d *dxf.Drawing, flattenTol, joinTol float64) ([]model.Point, JoinStats, error) {
	segs := Segments(d, flattenTol)
	st := JoinStats{Segments: len(segs)}
	if len(segs) == 0 {
		return nil, st, ErrNoSegments
	}

	res := geometry.Join(segs, joinTol)
	st.Used, st.Leftover = res.Used, res.Leftover
	st.Closed = res.Closed(joinTol)
	ring := geometry.ToRing(res.Path, joinTol)
	st.Points = len(ring)
	if !st.Closed {
		st.GapMM = res.Path[0].Dist(res.Path[len(res.Path)-1])
		return ring, st, fmt.Errorf("%w: gap of %.3f mm between its ends", ErrOpenOutline, st.GapMM)
	}
	return ring, st, nil
}

// Join chains the segments of d and returns a drawing holding the single
// closed LWPOLYLINE.
func Join(d *dxf.Drawing, flattenTol, joinTol float64) (*dxf.Drawing, JoinStats, error) {
	ring, st, err := JoinOutline(d, flattenTol, joinTol)
	if err != nil {
		return nil, st, err
	}
	out := dxf.NewDrawing()
	out.AddPolyline(model.Polyline{Points: ring, Closed: true})
	return out, st, nil
}

// ForceJoin is Join for a chain that may not close: the chain is saved as
// a closed LWPOLYLINE anyway, bridging the gap with a straight edge. The
// stats keep Closed false and the gap so callers can warn about it.
func ForceJoin(d *dxf.Drawing, flattenTol, joinTol float64) (*dxf.Drawing, JoinStats, error) {
	ring, st, err := JoinOutline(d, flattenTol, joinTol)
	if err != nil && !errors.Is(err, ErrOpenOutline) {
		return nil, st, err
	}
	if len(ring) < 3 {
		return nil, st, fmt.Errorf("%w: chain has only %d points", ErrOpenOutline, len(ring))
	}
	out := dxf.NewDrawing()
	out.AddPolyline(model.Polyline{Points: ring, Closed: true})
	return out, st, nil
}

// OffsetStats describes an offset.
type OffsetStats struct {
	Join       JoinStats `json:"join" yaml:"join"`
	DistanceMM float64   `json:"distanceMm" yaml:"distanceMm"`
	SourceArea float64   `json:"sourceAreaMm2" yaml:"sourceAreaMm2"`
	OffsetArea float64   `json:"offsetAreaMm2" yaml:"offsetAreaMm2"`
	Points     int       `json:"points" yaml:"points"`
}

// Offset joins the outline of d and offsets it inward by dist. The result
// holds the joined outline in SourceColor and the offset in OffsetColor.
// Joining again makes Offset accept both a joined drawing and the raw
// flatten output.
func Offset(d *dxf.Drawing, dist, flattenTol, joinTol float64) (*dxf.Drawing, []model.Point, OffsetStats, error) {
	st := OffsetStats{DistanceMM: dist}
	ring, js, err := JoinOutline(d, flattenTol, joinTol)
	st.Join = js
	if err != nil {
		return nil, nil, st, err
	}

	inner, err := geometry.OffsetInward(ring, dist)
	if err != nil {
		return nil, nil, st, fmt.Errorf("offset by %g mm: %w", dist, err)
	}
	st.SourceArea = geometry.Area(ring)
	st.OffsetArea = geometry.Area(inner)
	st.Points = len(inner)

	out := dxf.NewDrawing()
	out.AddPolyline(model.Polyline{Points: ring, Closed: true, Color: SourceColor})
	out.AddPolyline(model.Polyline{Points: inner, Closed: true, Color: OffsetColor})
	return out, inner, st, nil
}

// SelectOutline picks the outline a mold is cut from: the closed
// LWPOLYLINE drawn in OffsetColor when there is one (the output of
// Offset), otherwise the largest closed LWPOLYLINE.
func SelectOutline(d *dxf.Drawing, tol float64) (geometry.Outline, error) {
	for _, o := range geometry.Outlines(d, tol) {
		if o.Color == OffsetColor {
			return o, nil
		}
	}
	return geometry.LargestOutline(d, tol)
}
