package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single problem in a configuration file.
type ValidationError struct {
	// Field is the section that failed validation (e.g., "fabrication").
	Field string

	// Message describes what is wrong with it.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate checks every section of the configuration and returns all
// problems found (an empty list means the configuration is usable).
//
// The section validators on the model types return a single error with a
// "section: " prefix; the prefix is stripped here because Field already
// names the section.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	add := func(field, prefix string, err error) {
		if err == nil {
			return
		}
		msg := strings.TrimPrefix(err.Error(), prefix+": ")
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	add("fabrication", "fabrication", c.Fabrication.Validate())
	add("targets", "body targets", c.Targets.Validate())
	add("mold", "mold", c.Mold.Validate())

	if c.FlattenTolMM <= 0 {
		errs = append(errs, ValidationError{
			Field:   "flattenTolMm",
			Message: fmt.Sprintf("must be positive, got %g", c.FlattenTolMM),
		})
	}
	if c.JoinTolMM <= 0 {
		errs = append(errs, ValidationError{
			Field:   "joinTolMm",
			Message: fmt.Sprintf("must be positive, got %g", c.JoinTolMM),
		})
	}
	return errs
}
