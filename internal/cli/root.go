// Package cli implements the cobra-based CLI commands for cellomold.
//
// Each subcommand (inspect, flatten, join, offset, validate, measure,
// orient, mold, preview, pipeline) is defined in its own file within this
// package. This file defines the root command that serves as the parent for
// all subcommands and handles global flags.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/config"
	"github.com/shinji-kodama/cellomold/internal/logging"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// outputFormat selects how command results are printed on stdout:
	// "text" (default), "json" or "yaml".
	outputFormat string

	// configPath is an explicit configuration file. When empty the working
	// directory is searched (see config.Find).
	configPath string

	// verbose enables debug logging on stderr.
	verbose bool
)

// Runtime state prepared by the root command before any subcommand runs.
var (
	// cfg is the resolved project configuration.
	cfg = config.Default()

	// lggr receives progress and warnings. It stays a no-op logger until
	// the root command has parsed --verbose.
	lggr = logging.Nop()
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action. It provides help
// text and global flags, and its PersistentPreRunE prepares the logger and
// the configuration shared by every subcommand.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		// Use is the one-line usage pattern shown in help output.
		Use:   "cellomold",
		Short: "Prepare cello rib outlines and cut inner molds from DXF",
		Long: `cellomold turns a traced cello body outline into a laser-ready inner mold.

A typical session flattens the CAD export into polylines, joins them into a
single closed outline, offsets it inward by rib thickness plus glue
clearance, checks the result, and cuts the block flats and pin holes:

  cellomold flatten back.dxf back_flat.dxf
  cellomold join back_flat.dxf back_joined.dxf
  cellomold offset back_joined.dxf back_offset.dxf
  cellomold validate back_offset.dxf
  cellomold mold back_offset.dxf --out-prefix back_mold

or in one go:

  cellomold pipeline back.dxf --out-dir build --mold --preview`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text, JSON or YAML based on --format).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepare()
		},
	}

	// PersistentFlags are inherited by all subcommands. This is the cobra
	// mechanism for global flags: any flag defined here is automatically
	// available in every subcommand without re-declaration.
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatText, "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./cellomold.jsonc, ./cellomold.yaml or ./.cellomold/config.jsonc)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Register subcommands. Each subcommand is defined in its own file
	// (inspect.go, flatten.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewFlattenCommand())
	rootCmd.AddCommand(NewJoinCommand())
	rootCmd.AddCommand(NewOffsetCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewMeasureCommand())
	rootCmd.AddCommand(NewOrientCommand())
	rootCmd.AddCommand(NewMoldCommand())
	rootCmd.AddCommand(NewPreviewCommand())
	rootCmd.AddCommand(NewPipelineCommand())

	return rootCmd
}

// prepare validates the global flags, builds the logger and loads the
// configuration.
func prepare() error {
	if !validFormat(outputFormat) {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid output format %q: valid values are text, json, yaml", outputFormat))
	}

	lggr = logging.New(verbose)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	loaded, err := config.Resolve(configPath, wd)
	if err != nil {
		return err
	}
	cfg = loaded
	if cfg.Path != "" {
		VerboseLog("Using config %s", cfg.Path)
	} else {
		VerboseLog("No config file found, using defaults")
	}
	return nil
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Interrupts cancel the command context so long runs stop between steps.
// Errors are classified into exit codes (see classify) and printed in the
// selected output format.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = lggr.Sync()

	if err != nil {
		cliErr := classify(err)
		printError(os.Stderr, cliErr.Message, cliErr.Err)
		os.Exit(int(cliErr.Code))
	}
}

// printError outputs an error message in the selected format on w.
// Structured formats produce an {"error": {"message", "detail"}} object;
// text produces "Error: <message>".
func printError(w io.Writer, message string, underlying error) {
	switch outputFormat {
	case formatJSON, formatYAML:
		errObj := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		// Errors go to stderr even in structured modes because stdout is
		// reserved for successful command output.
		_ = encode(w, outputFormat, map[string]interface{}{"error": errObj})
	default:
		if underlying != nil {
			fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(w, "Error: %s\n", message)
		}
	}
}

// VerboseLog writes a debug entry through the logger. Debug entries are
// shown only when --verbose is set.
func VerboseLog(format string, args ...interface{}) {
	lggr.Debugf(format, args...)
}

// IsStructuredOutput returns whether --format selects JSON or YAML.
func IsStructuredOutput() bool {
	return outputFormat == formatJSON || outputFormat == formatYAML
}
