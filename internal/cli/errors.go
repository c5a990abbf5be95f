package cli

import (
	"errors"
	"os"

	"github.com/shinji-kodama/cellomold/internal/dxf"
	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/mold"
	"github.com/shinji-kodama/cellomold/internal/pipeline"
	"github.com/shinji-kodama/cellomold/internal/preview"
)

// geometryErrors are the sentinel errors of operations that could not
// produce usable geometry.
var geometryErrors = []error{
	geometry.ErrDegenerateRing,
	geometry.ErrEmptyClip,
	geometry.ErrNotLocal,
	geometry.ErrNoClosedOutline,
	pipeline.ErrNothingFlattened,
	pipeline.ErrNoSegments,
	pipeline.ErrOpenOutline,
	mold.ErrSplit,
	preview.ErrEmpty,
}

// classify maps an error returned by a command to a CLIError carrying the
// exit code. Errors that already are CLIErrors keep their code.
func classify(err error) *model.CLIError {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	code := model.ExitGeneralError
	var parseErr *dxf.ParseError
	switch {
	case errors.Is(err, os.ErrNotExist):
		code = model.ExitInputNotFound
	case errors.As(err, &parseErr), errors.Is(err, dxf.ErrBinaryDXF):
		code = model.ExitParseError
	case errors.Is(err, pipeline.ErrValidationFailed):
		code = model.ExitValidationFailed
	default:
		for _, target := range geometryErrors {
			if errors.Is(err, target) {
				code = model.ExitGeometryError
				break
			}
		}
	}
	return &model.CLIError{Code: code, Message: err.Error()}
}
