// Package model defines the domain types and value objects for the
// cellomold CLI.
//
// This package contains pure data structures with no external dependencies.
// Points and polylines are plain millimetre coordinates; the fabrication
// constants (rib thickness, glue clearance, mold offset, mold thickness) and
// the reference body dimensions live here so every other package agrees on
// them.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
