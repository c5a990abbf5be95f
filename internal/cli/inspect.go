package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/pipeline"
)

// NewInspectCommand creates the "inspect" cobra command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <in.dxf>",
		Short: "Show entity counts and LWPOLYLINE spans of a DXF",
		Long: `Show what a DXF contains before processing it.

Entities are counted per type, most common first. The first ten
LWPOLYLINEs are listed with their closed flag and bounding box span, which
tells whether the outline already is a single closed polyline.

Examples:
  cellomold inspect back.dxf
  cellomold inspect back.dxf --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runInspect(_ context.Context, w io.Writer, input string) error {
	d, err := readDrawing(input)
	if err != nil {
		return err
	}
	in := pipeline.Inspect(d)
	return printResult(w, in, func(w io.Writer) { printInspectText(w, in) })
}

// printInspectText prints the summary as:
//
//	Entity counts:
//	  LINE         16
//	  CIRCLE       2
//
//	LWPOLYLINE count: 1
//	  [0] closed=true span=(755.00,440.00)
func printInspectText(w io.Writer, in pipeline.Inspection) {
	fmt.Fprintln(w, "Entity counts:")
	for _, c := range in.Counts {
		fmt.Fprintf(w, "  %-12s %d\n", c.Type, c.Count)
	}

	fmt.Fprintf(w, "\nLWPOLYLINE count: %d\n", in.LWPolylines)
	for _, p := range in.Polylines {
		mirrored := ""
		if p.Mirrored {
			mirrored = " mirrored"
		}
		fmt.Fprintf(w, "  [%d] closed=%t span=(%.2f,%.2f)%s\n", p.Index, p.Closed, p.Span.X, p.Span.Y, mirrored)
	}
}
