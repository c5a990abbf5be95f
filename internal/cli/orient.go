package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// NewOrientCommand creates the "orient" cobra command.
func NewOrientCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "orient <in.dxf> <out.dxf>",
		Short: "Rotate the drawing so the body lies along +X, centred on the origin",
		Long: `Place the drawing the way mold generation expects it: the body along the
X axis with the neck at +X and the outline's bounding box centred on the
origin. Only quarter turns are applied, so coordinates stay exact.

Examples:
  cellomold orient back_offset.dxf back_oriented.dxf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrient(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runOrient(_ context.Context, w io.Writer, input, output string) error {
	d, err := readDrawing(input)
	if err != nil {
		return err
	}
	out, st, err := pipeline.Orient(d, cfg.FlattenTolMM)
	if err != nil {
		return err
	}
	if err := writeDrawing(output, out); err != nil {
		return err
	}
	if st.Flattened > 0 {
		lggr.Infow("entities written as polylines", "count", st.Flattened)
	}

	result := struct {
		Output string               `json:"output" yaml:"output"`
		Stats  pipeline.OrientStats `json:"stats" yaml:"stats"`
	}{output, st}
	return printResult(w, result, func(w io.Writer) {
		o := st.Orientation
		fmt.Fprintf(w, "Rotated %d deg, moved by %s: %s\n", o.RotationDeg, o.Offset, output)
		fmt.Fprintf(w, "  size %.2f x %.2f mm\n", st.After.Width(), st.After.Height())
	})
}
