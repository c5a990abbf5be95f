package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/mold"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// moldFlags holds the flag values for the mold command. Unset numeric
// flags fall back to the mold section of the configuration.
type moldFlags struct {
	outPrefix string
	axis      string
	params    model.MoldParams
}

// NewMoldCommand creates the "mold" cobra command.
func NewMoldCommand() *cobra.Command {
	flags := &moldFlags{}
	defaults := model.DefaultMoldParams()

	cmd := &cobra.Command{
		Use:   "mold <in.dxf>",
		Short: "Cut block flats and pin holes and split the mold into halves",
		Long: `Generate the inner mold from an offset outline. The outline is the red
offset written by the offset command, or the largest closed LWPOLYLINE.

The neck and end flats are cut square to the body axis, the four corner
flats at --corner-angle-deg, and up to three pin holes are placed on the
centerline. Three files are written:

  <prefix>_full.dxf   the whole mold
  <prefix>_halfA.dxf  the larger half
  <prefix>_halfB.dxf  the smaller half

The outline goes on layer CUT, the pin holes on layer PINS. The neck is
expected at the positive end of the axis; run orient first if it is not.

Examples:
  cellomold mold back_offset.dxf --out-prefix back_mold
  cellomold mold back_offset.dxf --axis y --corner-flat-mm 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := cfg.Mold
			p.NeckFlatMM = floatOr(cmd, "neck-flat-mm", flags.params.NeckFlatMM, p.NeckFlatMM)
			p.EndFlatMM = floatOr(cmd, "end-flat-mm", flags.params.EndFlatMM, p.EndFlatMM)
			p.CornerFlatMM = floatOr(cmd, "corner-flat-mm", flags.params.CornerFlatMM, p.CornerFlatMM)
			p.CornerAngleDeg = floatOr(cmd, "corner-angle-deg", flags.params.CornerAngleDeg, p.CornerAngleDeg)
			p.PinDiamMM = floatOr(cmd, "pin-diam-mm", flags.params.PinDiamMM, p.PinDiamMM)
			if cmd.Flags().Changed("axis") {
				axis, err := model.ParseAxis(flags.axis)
				if err != nil {
					return model.WrapCLIError(model.ExitGeneralError, "invalid --axis", err)
				}
				p.Axis = axis
			}
			flags.params = p
			return runMold(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.outPrefix, "out-prefix", "", "Output path prefix (default: input name + \"_mold\")")
	cmd.Flags().StringVar(&flags.axis, "axis", string(defaults.Axis), "Body axis: x or y")
	cmd.Flags().Float64Var(&flags.params.NeckFlatMM, "neck-flat-mm", defaults.NeckFlatMM, "Neck block flat depth in mm")
	cmd.Flags().Float64Var(&flags.params.EndFlatMM, "end-flat-mm", defaults.EndFlatMM, "End block flat depth in mm")
	cmd.Flags().Float64Var(&flags.params.CornerFlatMM, "corner-flat-mm", defaults.CornerFlatMM, "Corner block flat depth in mm")
	cmd.Flags().Float64Var(&flags.params.CornerAngleDeg, "corner-angle-deg", defaults.CornerAngleDeg, "Corner flat angle to the axis in degrees")
	cmd.Flags().Float64Var(&flags.params.PinDiamMM, "pin-diam-mm", defaults.PinDiamMM, "Alignment pin hole diameter in mm")

	return cmd
}

// moldResultJSON is the structured output of the mold command.
type moldResultJSON struct {
	Files    mold.Files       `json:"files" yaml:"files"`
	Params   model.MoldParams `json:"params" yaml:"params"`
	Corners  []mold.Corner    `json:"corners" yaml:"corners"`
	Pins     []model.Circle   `json:"pins" yaml:"pins"`
	Warnings []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func runMold(_ context.Context, w io.Writer, input string, flags *moldFlags) error {
	if err := flags.params.Validate(); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid mold parameters", err)
	}
	prefix := flags.outPrefix
	if prefix == "" {
		prefix = strings.TrimSuffix(input, filepath.Ext(input)) + "_mold"
	}

	d, err := readDrawing(input)
	if err != nil {
		return err
	}
	outline, err := pipeline.SelectOutline(d, cfg.FlattenTolMM)
	if err != nil {
		return err
	}
	VerboseLog("Using outline entity %d (%d points, color %d)", outline.Index, len(outline.Ring), outline.Color)

	res, err := mold.Generate(outline.Ring, flags.params)
	if err != nil {
		return err
	}
	for _, warn := range res.Warnings {
		lggr.Warn(warn)
	}
	files, err := mold.WriteFiles(prefix, res)
	if err != nil {
		return err
	}

	result := moldResultJSON{
		Files:    files,
		Params:   flags.params,
		Corners:  res.Corners,
		Pins:     res.Pins,
		Warnings: res.Warnings,
	}
	return printResult(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "Corners: %d\n", len(res.Corners))
		for _, c := range res.Corners {
			fmt.Fprintf(w, "  %s\n", c.Point)
		}
		fmt.Fprintf(w, "Pins: %d\n", len(res.Pins))
		for _, p := range res.Pins {
			fmt.Fprintf(w, "  %s d=%.1f\n", p.Center, 2*p.Radius)
		}
		fmt.Fprintf(w, "Saved: %s\n", files.Full)
		fmt.Fprintf(w, "Saved: %s\n", files.HalfA)
		fmt.Fprintf(w, "Saved: %s\n", files.HalfB)
	})
}
