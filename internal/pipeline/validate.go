package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// OffsetToleranceMM is the allowed deviation of the measured offset from
// the configured mold offset.
const OffsetToleranceMM = 0.05

// ErrValidationFailed is returned by Validation.Err when an outline fails
// one of its checks.
var ErrValidationFailed = errors.New("outline validation failed")

// OffsetCheck compares an outline against the outline it was offset from.
type OffsetCheck struct {
	ExpectedMM float64                `json:"expectedMm" yaml:"expectedMm"`
	Distance   geometry.DistanceStats `json:"distance" yaml:"distance"`
	OK         bool                   `json:"ok" yaml:"ok"`
}

// Validation is the result of the validate step.
type Validation struct {
	Outline geometry.Report `json:"outline" yaml:"outline"`

	// Offset is set only when a reference outline was given.
	Offset *OffsetCheck `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// OK reports whether every check passed.
func (v *Validation) OK() bool {
	if !v.Outline.OK() {
		return false
	}
	return v.Offset == nil || v.Offset.OK
}

// Problems lists the failed checks in plain words.
func (v *Validation) Problems() []string {
	var out []string
	r := v.Outline
	if !r.Closed {
		out = append(out, "outline is not closed")
	}
	if !r.Simple && r.Points >= 3 {
		out = append(out, fmt.Sprintf("outline intersects itself (%d crossings)", len(r.SelfIntersections)))
	}
	if r.Area <= 0 {
		out = append(out, "outline has no area")
	}
	if v.Offset != nil && !v.Offset.OK {
		out = append(out, fmt.Sprintf("offset is %.3f mm (min %.3f mm), expected %.3f mm",
			v.Offset.Distance.Median, v.Offset.Distance.Min, v.Offset.ExpectedMM))
	}
	return out
}

// Err returns nil when the outline passed, otherwise an error wrapping
// ErrValidationFailed that names every problem.
func (v *Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Problems(), "; "))
}

// Validate checks that an outline is usable for cutting. When reference
// is non-empty it also checks that the outline sits expectedMM inside it:
// the median distance must be within OffsetToleranceMM of expectedMM and
// no sample may be closer than expectedMM - OffsetToleranceMM.
func Validate(outline []model.Point, closed bool, reference []model.Point, expectedMM, tol float64) *Validation {
	v := &Validation{Outline: geometry.Check(outline, closed, tol)}
	if len(reference) == 0 {
		return v
	}

	stats := geometry.OffsetDistance(reference, outline)
	v.Offset = &OffsetCheck{
		ExpectedMM: expectedMM,
		Distance:   stats,
		OK: stats.Samples > 0 &&
			math.Abs(stats.Median-expectedMM) <= OffsetToleranceMM &&
			stats.Min >= expectedMM-OffsetToleranceMM,
	}
	return v
}
