package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// validateFlags holds the flag values for the validate command.
type validateFlags struct {
	// reference is the DXF holding the outline the input was offset from.
	reference string

	// offsetMM is the expected offset from the reference.
	offsetMM float64
}

// NewValidateCommand creates the "validate" cobra command.
func NewValidateCommand() *cobra.Command {
	flags := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate <in.dxf>",
		Short: "Check that an outline is closed, simple and correctly offset",
		Long: `Check the mold outline of a drawing: it must be closed, must not cross
itself and must enclose an area.

When a reference outline is available the inward offset is measured too:
the median distance must be within 0.05 mm of the expected offset and no
point may be closer than that. The reference is --reference, or the white
outline written by the offset command when the input holds both.

Exits with code 5 when a check fails.

Examples:
  cellomold validate back_offset.dxf
  cellomold validate mold.dxf --reference back_joined.dxf --offset-mm 2.2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.offsetMM = floatOr(cmd, "offset-mm", flags.offsetMM, cfg.Fabrication.MoldOffsetMM)
			return runValidate(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.reference, "reference", "", "DXF with the source outline to measure the offset against")
	cmd.Flags().Float64Var(&flags.offsetMM, "offset-mm", model.DefaultMoldOffsetMM, "Expected inward offset in mm (default: mold offset from config)")

	return cmd
}

func runValidate(_ context.Context, w io.Writer, input string, flags *validateFlags) error {
	d, err := readDrawing(input)
	if err != nil {
		return err
	}
	outline, err := pipeline.SelectOutline(d, cfg.FlattenTolMM)
	if err != nil {
		return err
	}

	var reference []model.Point
	switch {
	case flags.reference != "":
		ref, err := readDrawing(flags.reference)
		if err != nil {
			return err
		}
		if reference, err = referenceOutline(ref); err != nil {
			return fmt.Errorf("reference %s: %w", flags.reference, err)
		}
	case outline.Color == pipeline.OffsetColor:
		for _, o := range geometry.Outlines(d, cfg.FlattenTolMM) {
			if o.Color == pipeline.SourceColor {
				reference = o.Ring
				VerboseLog("Using the white outline (entity %d) as reference", o.Index)
				break
			}
		}
	}

	v := pipeline.Validate(outline.Ring, true, reference, flags.offsetMM, cfg.JoinTolMM)
	if err := printResult(w, v, func(w io.Writer) { printValidationText(w, v) }); err != nil {
		return err
	}
	if err := v.Err(); err != nil {
		return model.WrapCLIError(model.ExitValidationFailed, "validation failed", err)
	}
	return nil
}

// referenceOutline returns the source outline of a reference drawing: its
// largest closed LWPOLYLINE, or its segments joined when it has none.
func referenceOutline(d *dxf.Drawing) ([]model.Point, error) {
	o, err := geometry.LargestOutline(d, cfg.FlattenTolMM)
	if err == nil {
		return o.Ring, nil
	}
	if !errors.Is(err, geometry.ErrNoClosedOutline) {
		return nil, err
	}
	ring, _, err := pipeline.JoinOutline(d, cfg.FlattenTolMM, cfg.JoinTolMM)
	return ring, err
}

func printValidationText(w io.Writer, v *pipeline.Validation) {
	r := v.Outline
	fmt.Fprintf(w, "Points:     %d\n", r.Points)
	fmt.Fprintf(w, "Closed:     %t\n", r.Closed)
	fmt.Fprintf(w, "Simple:     %t\n", r.Simple)
	fmt.Fprintf(w, "Area:       %.1f mm2\n", r.Area)
	fmt.Fprintf(w, "Perimeter:  %.1f mm\n", r.Perimeter)
	fmt.Fprintf(w, "Size:       %.2f x %.2f mm\n", r.Bounds.Width(), r.Bounds.Height())
	for _, c := range r.SelfIntersections {
		fmt.Fprintf(w, "  crossing at %s\n", c.Point)
	}
	if v.Offset != nil {
		d := v.Offset.Distance
		fmt.Fprintf(w, "Offset:     median %.3f mm (min %.3f, max %.3f), expected %.3f mm\n",
			d.Median, d.Min, d.Max, v.Offset.ExpectedMM)
	}

	if v.OK() {
		fmt.Fprintln(w, "OK")
		return
	}
	for _, p := range v.Problems() {
		fmt.Fprintf(w, "FAIL: %s\n", p)
	}
}
