package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/measure"
	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// measureFlags holds the flag values for the measure command.
type measureFlags struct {
	// axis forces the body axis; empty detects it from the bounding box.
	axis string

	// strict turns out-of-range dimensions into a failing exit code.
	strict bool
}

// NewMeasureCommand creates the "measure" cobra command.
func NewMeasureCommand() *cobra.Command {
	flags := &measureFlags{}

	cmd := &cobra.Command{
		Use:   "measure <in.dxf>",
		Short: "Measure body length and bout widths against the reference body",
		Long: `Measure the outline of a drawing: body length along its long axis, the
upper and lower bouts (widest point in the 40% band at each end) and the
C-bout (narrowest point in the middle 30%). Each dimension is compared with
the configured targets (755 / 340 / 230 / 440 mm, +/-10 mm by default).

The upper bout is the narrower of the two ends.

Examples:
  cellomold measure back_joined.dxf
  cellomold measure back_joined.dxf --axis y --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.axis, "axis", "", "Body axis: x or y (default: detect)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Exit with code 5 when a dimension is out of range")

	return cmd
}

func runMeasure(_ context.Context, w io.Writer, input string, flags *measureFlags) error {
	var axis model.Axis
	if flags.axis != "" {
		a, err := model.ParseAxis(flags.axis)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --axis", err)
		}
		axis = a
	}

	d, err := readDrawing(input)
	if err != nil {
		return err
	}
	outline, err := pipeline.SelectOutline(d, cfg.FlattenTolMM)
	if err != nil {
		return err
	}

	rep, err := measure.Measure(outline.Ring, axis, cfg.Targets)
	if err != nil {
		return err
	}
	for _, dim := range rep.Dimensions() {
		if !dim.Pass {
			lggr.Warnw("dimension out of range", "name", dim.Name, "deltaMm", dim.DeltaMM)
		}
	}

	if err := printResult(w, rep, func(w io.Writer) { printMeasureText(w, rep) }); err != nil {
		return err
	}
	if flags.strict && !rep.Pass() {
		return model.NewCLIError(model.ExitValidationFailed, "body dimensions out of range")
	}
	return nil
}

// printMeasureText prints one row per dimension:
//
//	DIMENSION    MEASURED   TARGET    DELTA  AT        RESULT
//	length        755.00    755.00    +0.00  -         ok
func printMeasureText(w io.Writer, rep *measure.Report) {
	neck := "+"
	if !rep.NeckAtMax {
		neck = "-"
	}
	fmt.Fprintf(w, "Axis: %s (neck at %s%s)\n\n", rep.Axis, neck, rep.Axis)
	fmt.Fprintf(w, "%-12s %9s %9s %8s  %-9s %s\n", "DIMENSION", "MEASURED", "TARGET", "DELTA", "AT", "RESULT")
	for i, d := range rep.Dimensions() {
		at := "-"
		if i > 0 {
			at = fmt.Sprintf("%+.1f", d.AtMM)
		}
		result := "ok"
		if !d.Pass {
			result = "OUT OF RANGE"
		}
		fmt.Fprintf(w, "%-12s %9.2f %9.2f %+8.2f  %-9s %s\n", d.Name, d.MeasuredMM, d.TargetMM, d.DeltaMM, at, result)
	}
}
