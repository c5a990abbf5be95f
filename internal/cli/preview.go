package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/preview"
)

// previewFlags holds the flag values for the preview command.
type previewFlags struct {
	widthPx int
	noFill  bool
}

// NewPreviewCommand creates the "preview" cobra command.
func NewPreviewCommand() *cobra.Command {
	flags := &previewFlags{}

	cmd := &cobra.Command{
		Use:   "preview <in.dxf> <out.png>",
		Short: "Render a drawing to PNG",
		Long: `Render every outline of a drawing to a PNG, scaled to --width pixels.
Circles (pin holes) are drawn in blue, outlines in their DXF color.

Examples:
  cellomold preview back_mold_full.dxf mold.png
  cellomold preview back_offset.dxf offset.png --width 2400`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	cmd.Flags().IntVar(&flags.widthPx, "width", preview.DefaultWidthPx, "Image width in pixels")
	cmd.Flags().BoolVar(&flags.noFill, "no-fill", false, "Do not shade closed outlines")

	return cmd
}

func runPreview(_ context.Context, w io.Writer, input, output string, flags *previewFlags) error {
	if flags.widthPx <= 0 {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("--width must be positive, got %d", flags.widthPx))
	}
	d, err := readDrawing(input)
	if err != nil {
		return err
	}

	polys, circles := preview.FromDrawing(d, cfg.FlattenTolMM)
	opt := preview.DefaultOptions()
	opt.WidthPx = flags.widthPx
	opt.Fill = !flags.noFill

	img, err := preview.Render(polys, circles, opt)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(output, img); err != nil {
		return err
	}

	b := img.Bounds()
	result := struct {
		Output   string `json:"output" yaml:"output"`
		WidthPx  int    `json:"widthPx" yaml:"widthPx"`
		HeightPx int    `json:"heightPx" yaml:"heightPx"`
	}{output, b.Dx(), b.Dy()}
	return printResult(w, result, func(w io.Writer) {
		fmt.Fprintf(w, "Saved: %s (%dx%d)\n", output, b.Dx(), b.Dy())
	})
}
