package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
	"github.com/shinji-kodama/cellomold/internal/preview"
)

// pipelineFlags holds the flag values for the pipeline command.
type pipelineFlags struct {
	// outDir receives every intermediate file and manifest.yaml.
	outDir string

	mold    bool
	preview bool
	widthPx int
}

// NewPipelineCommand creates the "pipeline" cobra command.
func NewPipelineCommand() *cobra.Command {
	flags := &pipelineFlags{}

	cmd := &cobra.Command{
		Use:   "pipeline <in.dxf>",
		Short: "Run flatten, join, offset and validate in one go",
		Long: `Run the whole preparation on a CAD export:

  inspect -> flatten -> join -> offset -> validate -> measure
  [-> mold] [-> preview]

Every intermediate DXF is written to --out-dir together with manifest.yaml,
which records the run id, the configuration, each step's output and
statistics, and the validation and measurement reports. The manifest is
written even when a step fails.

Examples:
  cellomold pipeline back.dxf
  cellomold pipeline back.dxf --out-dir build --mold --preview`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.outDir, "out-dir", "", "Output directory (default: <input name>_out next to the input)")
	cmd.Flags().BoolVar(&flags.mold, "mold", false, "Also generate the inner mold")
	cmd.Flags().BoolVar(&flags.preview, "preview", false, "Also render a PNG preview")
	cmd.Flags().IntVar(&flags.widthPx, "width", preview.DefaultWidthPx, "Preview width in pixels")

	return cmd
}

func runPipeline(ctx context.Context, w io.Writer, input string, flags *pipelineFlags) error {
	outDir := flags.outDir
	if outDir == "" {
		outDir = strings.TrimSuffix(input, filepath.Ext(input)) + "_out"
	}

	m, err := pipeline.Run(ctx, pipeline.Options{
		Input:        input,
		OutDir:       outDir,
		Config:       cfg,
		Mold:         flags.mold,
		Preview:      flags.preview,
		PreviewWidth: flags.widthPx,
		Version:      Version,
		Logger:       lggr,
	})
	if err != nil {
		if m == nil {
			return err
		}
		if cliErr := classify(err); cliErr.Code == model.ExitGeneralError {
			return model.WrapCLIError(model.ExitGeneralError, "pipeline failed (see "+filepath.Join(outDir, pipeline.ManifestName)+")", err)
		}
		return err
	}

	return printResult(w, m, func(w io.Writer) {
		fmt.Fprintf(w, "Run %s\n", m.RunID)
		for _, s := range m.Steps {
			if s.Output != "" {
				fmt.Fprintf(w, "  %-9s %s\n", s.Name, s.Output)
			} else {
				fmt.Fprintf(w, "  %-9s ok\n", s.Name)
			}
		}
		if m.Measure != nil && !m.Measure.Pass() {
			fmt.Fprintln(w, "Warning: body dimensions out of range (see manifest)")
		}
		fmt.Fprintf(w, "Manifest: %s\n", filepath.Join(outDir, pipeline.ManifestName))
	})
}
