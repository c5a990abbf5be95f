package mold

import (
	"errors"
	"fmt"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Layer names used in the mold DXF files.
const (
	LayerCut  = "CUT"
	LayerPins = "PINS"
)

// pinClearance is how much larger than the pin radius the free disc
// around a pin must be for the pin to be kept.
const pinClearance = 1.2

// pinStations are the positions of the pins as fractions of the length.
var pinStations = []float64{0.25, 0.50, 0.75}

// cornerWalkFactor bounds how much outline (in multiples of the corner
// flat depth) a corner trim may remove on each side of the corner.
const cornerWalkFactor = 4.0

// ErrSplit is returned when the mold cannot be split into two halves.
var ErrSplit = errors.New("split did not produce two halves; check the axis orientation")

// Result is a generated inner mold.
type Result struct {
	// Source is the bounding box of the input outline.
	Source geometry.BBox `json:"source" yaml:"source"`

	// Outline is the full mold outline after all flats are cut.
	Outline []model.Point `json:"-" yaml:"-"`

	// Corners are the corners that were found, in the order they were cut.
	Corners []Corner `json:"corners" yaml:"corners"`

	// Pins are the alignment pin holes that fit inside the mold.
	Pins []model.Circle `json:"pins" yaml:"pins"`

	// HalfA is the larger half, HalfB the smaller one.
	HalfA []model.Point `json:"-" yaml:"-"`
	HalfB []model.Point `json:"-" yaml:"-"`

	// Warnings lists corners that were skipped and similar non-fatal
	// problems.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Generate builds the inner mold from an outline that has already been
// offset inward. The neck is assumed at the positive end of the axis.
func Generate(outline []model.Point, p model.MoldParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ring := geometry.ToRing(outline, 1e-9)
	if len(ring) < 3 || geometry.Area(ring) <= 0 {
		return nil, geometry.ErrDegenerateRing
	}

	res := &Result{Source: geometry.Bounds(ring)}
	f := newFrame(p.Axis, res.Source.Center())
	minAlong, _ := f.coords(res.Source.Min)
	maxAlong, _ := f.coords(res.Source.Max)

	// Neck and end flats, square to the axis.
	neck := f.center.Add(f.long.Scale(maxAlong - p.NeckFlatMM))
	ring, err := geometry.ClipHalfPlane(ring, neck, f.long)
	if err != nil {
		return nil, fmt.Errorf("neck flat: %w", err)
	}
	end := f.center.Add(f.long.Scale(minAlong + p.EndFlatMM))
	ring, err = geometry.ClipHalfPlane(ring, end, f.long.Scale(-1))
	if err != nil {
		return nil, fmt.Errorf("end flat: %w", err)
	}

	// Corner flats. The frame is re-centred on the clipped outline, which
	// is what the waist band is measured against.
	f = newFrame(p.Axis, geometry.Bounds(ring).Center())
	res.Corners = findCorners(ring, p.Axis)
	if len(res.Corners) < 4 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("found %d corners, expected 4", len(res.Corners)))
	}
	for _, c := range res.Corners {
		n := flatNormal(c, f, p.CornerAngleDeg)
		p0 := c.Point.Sub(n.Scale(p.CornerFlatMM))
		trimmed, removed, err := geometry.TrimEar(ring, c.Point, p0, n, cornerWalkFactor*p.CornerFlatMM+1)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("corner at %s skipped: %v", c.Point, err))
			continue
		}
		if !removed {
			res.Warnings = append(res.Warnings, fmt.Sprintf("corner at %s already inside its flat", c.Point))
		}
		ring = trimmed
	}

	res.Outline = ring
	res.Pins = placePins(ring, f, p)

	res.HalfA, res.HalfB, err = geometry.SplitByLine(ring, f.center, f.long)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSplit, err)
	}
	return res, nil
}

// placePins puts pin holes on the centerline at the pin stations, keeping
// only those with enough material around them.
func placePins(ring []model.Point, f frame, p model.MoldParams) []model.Circle {
	b := geometry.Bounds(ring)
	minAlong, _ := f.coords(b.Min)
	maxAlong, _ := f.coords(b.Max)
	r := 0.5 * p.PinDiamMM

	var pins []model.Circle
	for _, s := range pinStations {
		along := minAlong + s*(maxAlong-minAlong)
		c := f.center.Add(f.long.Scale(along))
		if !geometry.Contains(ring, c) || geometry.DistanceToRing(ring, c) < pinClearance*r {
			continue
		}
		pins = append(pins, model.Circle{Center: c, Radius: r, Layer: LayerPins})
	}
	return pins
}
