package measure

import (
	"fmt"
	"math"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Band sizes as fractions of the body length.
const (
	boutBand   = 0.40
	cBoutBand  = 0.30
	cBoutStart = (1 - cBoutBand) / 2
)

// Dimension is one measured body dimension compared with its target.
type Dimension struct {
	Name       string  `json:"name" yaml:"name"`
	MeasuredMM float64 `json:"measuredMm" yaml:"measuredMm"`
	TargetMM   float64 `json:"targetMm" yaml:"targetMm"`
	DeltaMM    float64 `json:"deltaMm" yaml:"deltaMm"`
	Pass       bool    `json:"pass" yaml:"pass"`

	// AtMM is the position along the axis (relative to the bounding box
	// centre) where the width was taken. Zero for the length.
	AtMM float64 `json:"atMm" yaml:"atMm"`
}

func newDimension(name string, measured, target, tol, at float64) Dimension {
	delta := measured - target
	return Dimension{
		Name:       name,
		MeasuredMM: measured,
		TargetMM:   target,
		DeltaMM:    delta,
		Pass:       math.Abs(delta) <= tol,
		AtMM:       at,
	}
}

// Report holds the measured body dimensions.
type Report struct {
	// Axis is the body axis the outline was measured along.
	Axis model.Axis `json:"axis" yaml:"axis"`

	// NeckAtMax is true when the neck (narrower bout) is at the positive
	// end of the axis.
	NeckAtMax bool `json:"neckAtMax" yaml:"neckAtMax"`

	Length    Dimension `json:"length" yaml:"length"`
	UpperBout Dimension `json:"upperBout" yaml:"upperBout"`
	CBout     Dimension `json:"cBout" yaml:"cBout"`
	LowerBout Dimension `json:"lowerBout" yaml:"lowerBout"`
}

// Dimensions returns the four dimensions in reporting order.
func (r *Report) Dimensions() []Dimension {
	return []Dimension{r.Length, r.UpperBout, r.CBout, r.LowerBout}
}

// Pass reports whether every dimension is within tolerance.
func (r *Report) Pass() bool {
	for _, d := range r.Dimensions() {
		if !d.Pass {
			return false
		}
	}
	return true
}

// LongAxis returns the axis along which the ring's bounding box is longer.
// Square boxes count as X.
func LongAxis(ring []model.Point) model.Axis {
	b := geometry.Bounds(ring)
	if b.Height() > b.Width() {
		return model.AxisY
	}
	return model.AxisX
}

// Measure measures a closed outline. An empty axis is detected from the
// bounding box.
func Measure(ring []model.Point, axis model.Axis, targets model.BodyTargets) (*Report, error) {
	ring = geometry.ToRing(ring, 1e-9)
	if len(ring) < 3 || geometry.Area(ring) <= 0 {
		return nil, geometry.ErrDegenerateRing
	}
	if axis == "" {
		axis = LongAxis(ring)
	}
	if !axis.IsValid() {
		return nil, fmt.Errorf("invalid axis %q", axis)
	}

	s := newSlicer(ring, axis)
	length := s.max - s.min

	endLo, endHi := s.min, s.min+boutBand*length
	neckLo, neckHi := s.max-boutBand*length, s.max
	minEnd, atMinEnd := s.widest(endLo, endHi)
	maxEnd, atMaxEnd := s.widest(neckLo, neckHi)
	cWidth, atC := s.narrowest(s.min+cBoutStart*length, s.min+(cBoutStart+cBoutBand)*length)

	r := &Report{Axis: axis, NeckAtMax: maxEnd <= minEnd}
	upper, atUpper, lower, atLower := maxEnd, atMaxEnd, minEnd, atMinEnd
	if !r.NeckAtMax {
		upper, atUpper, lower, atLower = minEnd, atMinEnd, maxEnd, atMaxEnd
	}

	tol := targets.ToleranceMM
	r.Length = newDimension("length", length, targets.LengthMM, tol, 0)
	r.UpperBout = newDimension("upper bout", upper, targets.UpperBoutMM, tol, atUpper-s.mid)
	r.CBout = newDimension("C-bout", cWidth, targets.CBoutMM, tol, atC-s.mid)
	r.LowerBout = newDimension("lower bout", lower, targets.LowerBoutMM, tol, atLower-s.mid)
	return r, nil
}

// slicer measures widths of a ring across an axis.
type slicer struct {
	ring     []model.Point
	along    []float64 // per-vertex position along the axis
	across   []float64 // per-vertex position across the axis
	min, max float64
	mid      float64
}

func newSlicer(ring []model.Point, axis model.Axis) *slicer {
	s := &slicer{
		ring:   ring,
		along:  make([]float64, len(ring)),
		across: make([]float64, len(ring)),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}
	for i, p := range ring {
		if axis == model.AxisY {
			s.along[i], s.across[i] = p.Y, p.X
		} else {
			s.along[i], s.across[i] = p.X, p.Y
		}
		s.min = math.Min(s.min, s.along[i])
		s.max = math.Max(s.max, s.along[i])
	}
	s.mid = 0.5 * (s.min + s.max)
	return s
}

// width returns the extent of the ring on the slice at position a: the
// distance between the outermost crossings.
func (s *slicer) width(a float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := len(s.ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pa, qa := s.along[i], s.along[j]
		if a < math.Min(pa, qa) || a > math.Max(pa, qa) {
			continue
		}
		if pa == qa {
			lo = math.Min(lo, math.Min(s.across[i], s.across[j]))
			hi = math.Max(hi, math.Max(s.across[i], s.across[j]))
			continue
		}
		t := (a - pa) / (qa - pa)
		c := s.across[i] + t*(s.across[j]-s.across[i])
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

// stations returns the slice positions in [lo, hi] where the width can
// reach an extreme: the band edges and every vertex in between. Between
// two vertex positions the width of a simple polygon is linear.
func (s *slicer) stations(lo, hi float64) []float64 {
	out := []float64{lo, hi}
	for _, a := range s.along {
		if a > lo && a < hi {
			out = append(out, a)
		}
	}
	return out
}

// widest returns the largest width in [lo, hi] and where it occurs.
func (s *slicer) widest(lo, hi float64) (float64, float64) {
	best, at := -1.0, lo
	for _, a := range s.stations(lo, hi) {
		if w := s.width(a); w > best {
			best, at = w, a
		}
	}
	return best, at
}

// narrowest returns the smallest width in [lo, hi] and where it occurs.
func (s *slicer) narrowest(lo, hi float64) (float64, float64) {
	best, at := math.Inf(1), lo
	for _, a := range s.stations(lo, hi) {
		if w := s.width(a); w < best {
			best, at = w, a
		}
	}
	return best, at
}
