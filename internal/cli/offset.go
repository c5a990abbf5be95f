package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// offsetFlags holds the flag values for the offset command.
type offsetFlags struct {
	// offsetMM is the inward offset distance. Defaults to the configured
	// mold offset (rib thickness + glue clearance).
	offsetMM float64
}

// NewOffsetCommand creates the "offset" cobra command.
func NewOffsetCommand() *cobra.Command {
	flags := &offsetFlags{}

	cmd := &cobra.Command{
		Use:   "offset <in.dxf> <out.dxf>",
		Short: "Offset the rib outline inward to the mold outline",
		Long: `Join the outline of the input and offset it inward. The output holds the
joined outline in white (color 7) and the offset in red (color 1).

The offset always goes inward, whatever the winding of the outline. The
default distance is the configured mold offset: rib thickness plus glue
clearance (2.0 + 0.2 mm unless configured otherwise).

Examples:
  cellomold offset back_joined.dxf back_offset.dxf
  cellomold offset back_joined.dxf back_offset.dxf --offset-mm 4.7`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.offsetMM = floatOr(cmd, "offset-mm", flags.offsetMM, cfg.Fabrication.MoldOffsetMM)
			return runOffset(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.offsetMM, "offset-mm", model.DefaultMoldOffsetMM, "Inward offset in mm (default: rib thickness + glue clearance from config)")

	return cmd
}

func runOffset(_ context.Context, w io.Writer, input, output string, flags *offsetFlags) error {
	if err := requirePositive("offset-mm", flags.offsetMM); err != nil {
		return err
	}
	d, err := readDrawing(input)
	if err != nil {
		return err
	}

	out, _, st, err := pipeline.Offset(d, flags.offsetMM, cfg.FlattenTolMM, cfg.JoinTolMM)
	if st.Join.Leftover > 0 {
		lggr.Warnf("Discontinuity detected. %d pieces left over.", st.Join.Leftover)
	}
	if err != nil {
		return err
	}
	if err := writeDrawing(output, out); err != nil {
		return err
	}

	result := struct {
		Output string               `json:"output" yaml:"output"`
		Stats  pipeline.OffsetStats `json:"stats" yaml:"stats"`
	}{output, st}
	return printResult(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "Success! Created joined contour with %gmm inward offset in %s\n", st.DistanceMM, output)
		fmt.Fprintf(w, "  area %.1f -> %.1f mm2, %d points\n", st.SourceArea, st.OffsetArea, st.Points)
	})
}
