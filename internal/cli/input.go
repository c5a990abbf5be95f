package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/model"
)

// readDrawing loads a DXF input. A missing file becomes a CLIError with
// ExitInputNotFound; parse errors keep their line numbers and are mapped
// to ExitParseError by classify.
func readDrawing(path string) (*dxf.Drawing, error) {
	d, err := dxf.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitInputNotFound,
				fmt.Sprintf("input file not found: %s", path), nil)
		}
		return nil, err
	}
	VerboseLog("Read %s: %d entities (version %q, units %d)", path, len(d.Entities), d.Version, d.Units)
	if d.Units != dxf.UnitsMillimeter && d.Units != dxf.UnitsUnitless {
		lggr.Warnw("drawing units are not millimetres; coordinates are used as-is", "path", path, "insunits", d.Units)
	}
	return d, nil
}

// writeDrawing writes a DXF output and logs it.
func writeDrawing(path string, d *dxf.Drawing) error {
	if err := dxf.WriteFile(path, d); err != nil {
		return err
	}
	VerboseLog("Wrote %s: %d entities", path, len(d.Entities))
	return nil
}

// floatOr returns the flag value when the user set it, otherwise the
// configured value. Commands use it so flags override the config file.
func floatOr(cmd *cobra.Command, name string, flagValue, configured float64) float64 {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configured
}

// requirePositive rejects zero and negative tolerances and distances.
func requirePositive(name string, v float64) error {
	if v <= 0 {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("--%s must be positive, got %g", name, v))
	}
	return nil
}
