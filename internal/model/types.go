// Package model defines the domain types for the cellomold CLI.
//
// All lengths are in millimetres. DXF drawings produced by CAD tools for
// this workflow use millimetre units ($INSUNITS = 4), so no unit conversion
// happens anywhere in the tool.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Point is a 2D coordinate in millimetres.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for constructing a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// String returns the point formatted with two decimals, e.g. "(12.50,3.00)".
func (p Point) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y)
}

// Polyline is an ordered sequence of points. When Closed is true the last
// point connects back to the first; the first point is NOT repeated at the
// end in that case.
type Polyline struct {
	// Points holds the vertices in drawing order.
	Points []Point `json:"points" yaml:"points"`

	// Closed marks the polyline as a closed ring.
	Closed bool `json:"closed" yaml:"closed"`

	// Layer is the DXF layer the polyline belongs to. Empty means "0".
	Layer string `json:"layer,omitempty" yaml:"layer,omitempty"`

	// Color is the DXF ACI color index. 0 means BYBLOCK, 256 BYLAYER;
	// the writer omits the color group when it is 0.
	Color int `json:"color,omitempty" yaml:"color,omitempty"`
}

// Circle is a full circle, used for alignment pin holes.
type Circle struct {
	Center Point   `json:"center" yaml:"center"`
	Radius float64 `json:"radius" yaml:"radius"`
	Layer  string  `json:"layer,omitempty" yaml:"layer,omitempty"`
}

// Axis names the longitudinal axis of the cello body in a drawing.
type Axis string

const (
	// AxisX means the body length runs along X (neck at +X).
	AxisX Axis = "x"

	// AxisY means the body length runs along Y (neck at +Y).
	AxisY Axis = "y"
)

// String returns the string representation of Axis.
func (a Axis) String() string {
	return string(a)
}

// IsValid checks whether the Axis value is one of the predefined axes.
func (a Axis) IsValid() bool {
	switch a {
	case AxisX, AxisY:
		return true
	default:
		return false
	}
}

// ParseAxis converts a string to an Axis. Matching is case-insensitive.
func ParseAxis(s string) (Axis, error) {
	axis := Axis(strings.ToLower(s))
	if !axis.IsValid() {
		return "", fmt.Errorf("invalid axis: %q (valid: x, y)", s)
	}
	return axis, nil
}

// Default fabrication constants for the inner mold. The mold offset is the
// rib thickness plus the glue clearance: the ribs are bent around the mold,
// so the mold must be smaller than the rib outline by exactly that amount.
const (
	DefaultRibThicknessMM  = 2.0
	DefaultGlueClearanceMM = 0.2
	DefaultMoldOffsetMM    = DefaultRibThicknessMM + DefaultGlueClearanceMM
	DefaultMoldThicknessMM = 18.0
)

// Reference body dimensions for a full-size cello. These are the numbers a
// builder checks the outline against before cutting anything.
const (
	DefaultBodyLengthMM    = 755.0
	DefaultUpperBoutMM     = 340.0
	DefaultCBoutMM         = 230.0
	DefaultLowerBoutMM     = 440.0
	DefaultBodyToleranceMM = 10.0
)

// offsetEpsilon is the tolerance for the offset == rib + glue invariant.
const offsetEpsilon = 1e-9

// FabricationSpec carries the physical constants that drive the offset.
type FabricationSpec struct {
	// RibThicknessMM is the thickness of the bent side ribs.
	RibThicknessMM float64 `json:"ribThicknessMm" yaml:"ribThicknessMm"`

	// GlueClearanceMM is the extra gap left for glue and rib lining.
	GlueClearanceMM float64 `json:"glueClearanceMm" yaml:"glueClearanceMm"`

	// MoldOffsetMM is the inward offset from the rib outline to the mold.
	// Must equal RibThicknessMM + GlueClearanceMM.
	MoldOffsetMM float64 `json:"moldOffsetMm" yaml:"moldOffsetMm"`

	// MoldThicknessMM is the plywood sheet thickness the mold is cut from.
	MoldThicknessMM float64 `json:"moldThicknessMm" yaml:"moldThicknessMm"`
}

// DefaultFabricationSpec returns the documented workshop constants.
func DefaultFabricationSpec() FabricationSpec {
	return FabricationSpec{
		RibThicknessMM:  DefaultRibThicknessMM,
		GlueClearanceMM: DefaultGlueClearanceMM,
		MoldOffsetMM:    DefaultMoldOffsetMM,
		MoldThicknessMM: DefaultMoldThicknessMM,
	}
}

// Validate checks that all constants are positive and that the mold offset
// matches rib thickness plus glue clearance.
func (f *FabricationSpec) Validate() error {
	if f.RibThicknessMM <= 0 {
		return fmt.Errorf("fabrication: rib thickness must be positive, got %g", f.RibThicknessMM)
	}
	if f.GlueClearanceMM < 0 {
		return fmt.Errorf("fabrication: glue clearance must not be negative, got %g", f.GlueClearanceMM)
	}
	if f.MoldThicknessMM <= 0 {
		return fmt.Errorf("fabrication: mold thickness must be positive, got %g", f.MoldThicknessMM)
	}
	want := f.RibThicknessMM + f.GlueClearanceMM
	if math.Abs(f.MoldOffsetMM-want) > offsetEpsilon {
		return fmt.Errorf("fabrication: mold offset %g mm does not equal rib thickness + glue clearance (%g mm)",
			f.MoldOffsetMM, want)
	}
	return nil
}

// BodyTargets are the reference dimensions an outline is measured against.
type BodyTargets struct {
	LengthMM    float64 `json:"lengthMm" yaml:"lengthMm"`
	UpperBoutMM float64 `json:"upperBoutMm" yaml:"upperBoutMm"`
	CBoutMM     float64 `json:"cBoutMm" yaml:"cBoutMm"`
	LowerBoutMM float64 `json:"lowerBoutMm" yaml:"lowerBoutMm"`

	// ToleranceMM is the allowed absolute deviation for every dimension.
	ToleranceMM float64 `json:"toleranceMm" yaml:"toleranceMm"`
}

// DefaultBodyTargets returns the full-size cello reference dimensions.
func DefaultBodyTargets() BodyTargets {
	return BodyTargets{
		LengthMM:    DefaultBodyLengthMM,
		UpperBoutMM: DefaultUpperBoutMM,
		CBoutMM:     DefaultCBoutMM,
		LowerBoutMM: DefaultLowerBoutMM,
		ToleranceMM: DefaultBodyToleranceMM,
	}
}

// Validate checks that every target dimension is positive and that the
// bouts are ordered the way a violin-family body is shaped.
func (b *BodyTargets) Validate() error {
	if b.LengthMM <= 0 || b.UpperBoutMM <= 0 || b.CBoutMM <= 0 || b.LowerBoutMM <= 0 {
		return fmt.Errorf("body targets: all dimensions must be positive")
	}
	if b.ToleranceMM < 0 {
		return fmt.Errorf("body targets: tolerance must not be negative, got %g", b.ToleranceMM)
	}
	if b.CBoutMM >= b.UpperBoutMM || b.CBoutMM >= b.LowerBoutMM {
		return fmt.Errorf("body targets: C-bout (%g) must be narrower than both upper (%g) and lower (%g) bouts",
			b.CBoutMM, b.UpperBoutMM, b.LowerBoutMM)
	}
	return nil
}

// MoldParams controls inner mold generation: how deep the block flats are
// cut and where the alignment pins go.
type MoldParams struct {
	// Axis is the longitudinal axis of the body in the drawing.
	Axis Axis `json:"axis" yaml:"axis"`

	// NeckFlatMM is cut off the extreme neck end for the neck block.
	NeckFlatMM float64 `json:"neckFlatMm" yaml:"neckFlatMm"`

	// EndFlatMM is cut off the extreme tail end for the end block.
	EndFlatMM float64 `json:"endFlatMm" yaml:"endFlatMm"`

	// CornerFlatMM is the depth of each of the four corner block flats.
	CornerFlatMM float64 `json:"cornerFlatMm" yaml:"cornerFlatMm"`

	// CornerAngleDeg is the angle of the corner flat normal to the axis.
	CornerAngleDeg float64 `json:"cornerAngleDeg" yaml:"cornerAngleDeg"`

	// PinDiamMM is the alignment pin hole diameter.
	PinDiamMM float64 `json:"pinDiamMm" yaml:"pinDiamMm"`
}

// DefaultMoldParams returns the block sizes used for a full-size cello.
func DefaultMoldParams() MoldParams {
	return MoldParams{
		Axis:           AxisX,
		NeckFlatMM:     62.0,
		EndFlatMM:      58.0,
		CornerFlatMM:   34.0,
		CornerAngleDeg: 45.0,
		PinDiamMM:      6.0,
	}
}

// Validate checks the mold parameters for obviously unusable values.
func (m *MoldParams) Validate() error {
	if !m.Axis.IsValid() {
		return fmt.Errorf("mold: invalid axis %q (valid: x, y)", m.Axis)
	}
	if m.NeckFlatMM < 0 || m.EndFlatMM < 0 || m.CornerFlatMM < 0 {
		return fmt.Errorf("mold: flat depths must not be negative")
	}
	if m.CornerAngleDeg <= 0 || m.CornerAngleDeg >= 90 {
		return fmt.Errorf("mold: corner angle must be between 0 and 90 degrees, got %g", m.CornerAngleDeg)
	}
	if m.PinDiamMM <= 0 {
		return fmt.Errorf("mold: pin diameter must be positive, got %g", m.PinDiamMM)
	}
	return nil
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts to determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInputNotFound indicates an input file does not exist.
	ExitInputNotFound ExitCode = 2

	// ExitParseError indicates a DXF file could not be parsed.
	ExitParseError ExitCode = 3

	// ExitGeometryError indicates a geometry operation could not produce
	// a usable result (nothing flattened, empty clip, failed split, ...).
	ExitGeometryError ExitCode = 4

	// ExitValidationFailed indicates an outline failed its checks
	// (open, self-intersecting, wrong offset, out-of-range dimensions).
	ExitValidationFailed ExitCode = 5

	// ExitConfigError indicates the project configuration is invalid.
	ExitConfigError ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
