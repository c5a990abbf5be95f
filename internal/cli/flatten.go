package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// flattenFlags holds the flag values for the flatten command.
type flattenFlags struct {
	// tolMM is the chord tolerance for curve sampling.
	tolMM float64
}

// NewFlattenCommand creates the "flatten" cobra command.
func NewFlattenCommand() *cobra.Command {
	flags := &flattenFlags{}

	cmd := &cobra.Command{
		Use:   "flatten <in.dxf> <out.dxf>",
		Short: "Sample every curve into an open LWPOLYLINE",
		Long: `Turn lines, arcs, circles, bulged polylines, splines and ellipses into
plain polylines, one per entity. Text, dimensions and hatches are skipped.
The result is the input for join.

Examples:
  cellomold flatten back.dxf back_flat.dxf
  cellomold flatten back.dxf back_flat.dxf --tol-mm 0.05`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.tolMM = floatOr(cmd, "tol-mm", flags.tolMM, cfg.FlattenTolMM)
			return runFlatten(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.tolMM, "tol-mm", 0.2, "Flatten tolerance in mm (smaller = more points)")

	return cmd
}

func runFlatten(_ context.Context, w io.Writer, input, output string, flags *flattenFlags) error {
	if err := requirePositive("tol-mm", flags.tolMM); err != nil {
		return err
	}
	d, err := readDrawing(input)
	if err != nil {
		return err
	}

	out, st, err := pipeline.Flatten(d, flags.tolMM)
	if err != nil {
		return err
	}
	if err := writeDrawing(output, out); err != nil {
		return err
	}
	lggr.Infow("flattened", "entities", st.Flattened, "skipped", st.Skipped, "unsupported", st.Unsupported)

	result := struct {
		Output string                `json:"output" yaml:"output"`
		Stats  pipeline.FlattenStats `json:"stats" yaml:"stats"`
	}{output, st}
	return printResult(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "OK: %s (%d polylines, %d points; %d skipped, %d unsupported)\n",
			output, st.Flattened, st.Points, st.Skipped, st.Unsupported)
	})
}
