package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// joinFlags holds the flag values for the join command.
type joinFlags struct {
	// tol is the end point matching distance in mm.
	tol float64

	// forceClose saves a chain that does not close as a closed polyline
	// instead of failing.
	forceClose bool
}

// NewJoinCommand creates the "join" cobra command.
func NewJoinCommand() *cobra.Command {
	flags := &joinFlags{}

	cmd := &cobra.Command{
		Use:   "join <in.dxf> <out.dxf>",
		Short: "Chain LINE and LWPOLYLINE segments into one closed outline",
		Long: `Chain segments whose end points meet within --tol into a single closed
LWPOLYLINE. Pieces that do not connect are reported as a discontinuity;
the command fails when the chain does not close. With --force-close the
chain is saved as a closed polyline anyway, bridging the gap with a
straight edge, and a warning is printed.

Examples:
  cellomold join back_flat.dxf back_joined.dxf
  cellomold join back_flat.dxf back_joined.dxf --tol 0.05
  cellomold join back_flat.dxf back_joined.dxf --force-close`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.tol = floatOr(cmd, "tol", flags.tol, cfg.JoinTolMM)
			return runJoin(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.tol, "tol", 0.01, "End point matching tolerance in mm")
	cmd.Flags().BoolVar(&flags.forceClose, "force-close", false, "Save the outline closed even when the chain has a gap")

	return cmd
}

func runJoin(_ context.Context, w io.Writer, input, output string, flags *joinFlags) error {
	if err := requirePositive("tol", flags.tol); err != nil {
		return err
	}
	d, err := readDrawing(input)
	if err != nil {
		return err
	}

	join := pipeline.Join
	if flags.forceClose {
		join = pipeline.ForceJoin
	}
	out, st, err := join(d, cfg.FlattenTolMM, flags.tol)
	if st.Leftover > 0 {
		lggr.Warnf("Discontinuity detected. %d pieces left over.", st.Leftover)
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrOpenOutline) {
			return fmt.Errorf("%w (joined %d of %d segments; try a larger --tol or --force-close)", err, st.Used, st.Segments)
		}
		return err
	}
	if !st.Closed {
		lggr.Warnf("Chain does not close (gap of %.3f mm); saved as a closed polyline anyway.", st.GapMM)
	}
	if err := writeDrawing(output, out); err != nil {
		return err
	}

	result := struct {
		Output string             `json:"output" yaml:"output"`
		Stats  pipeline.JoinStats `json:"stats" yaml:"stats"`
	}{output, st}
	return printResult(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "Success! Joined %d segments into a closed outline of %d points: %s\n",
			st.Used, st.Points, output)
		if !st.Closed {
			fmt.Fprintf(w, "Warning: closed across a gap of %.3f mm\n", st.GapMM)
		}
		if st.Leftover > 0 {
			fmt.Fprintf(w, "Warning: %d pieces left over\n", st.Leftover)
		}
	})
}
