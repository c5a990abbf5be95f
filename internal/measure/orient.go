package measure

import (
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Orientation is a rigid placement: a counter-clockwise rotation about the
// origin by a multiple of 90 degrees followed by a translation.
type Orientation struct {
	RotationDeg int         `json:"rotationDeg" yaml:"rotationDeg"`
	Offset      model.Point `json:"offset" yaml:"offset"`
}

// Apply places p. Quarter turns are done by swapping coordinates so the
// result is exact.
func (o Orientation) Apply(p model.Point) model.Point {
	switch ((o.RotationDeg % 360) + 360) % 360 {
	case 90:
		p = model.Pt(-p.Y, p.X)
	case 180:
		p = model.Pt(-p.X, -p.Y)
	case 270:
		p = model.Pt(p.Y, -p.X)
	}
	return p.Add(o.Offset)
}

// ApplyAll places every point.
func (o Orientation) ApplyAll(pts []model.Point) []model.Point {
	return geometry.Transform(pts, o.Apply)
}

// Orient finds the placement that puts the body along X with the neck at
// +X and the bounding box centred on the origin, which is what mold
// generation assumes by default.
func Orient(ring []model.Point) (Orientation, error) {
	ring = geometry.ToRing(ring, 1e-9)
	if len(ring) < 3 || geometry.Area(ring) <= 0 {
		return Orientation{}, geometry.ErrDegenerateRing
	}

	o := Orientation{}
	if LongAxis(ring) == model.AxisY {
		o.RotationDeg = 270
	}
	rep, err := Measure(o.ApplyAll(ring), model.AxisX, model.DefaultBodyTargets())
	if err != nil {
		return Orientation{}, err
	}
	if !rep.NeckAtMax {
		o.RotationDeg = (o.RotationDeg + 180) % 360
	}

	o.Offset = geometry.Bounds(o.ApplyAll(ring)).Center().Scale(-1)
	return o, nil
}
