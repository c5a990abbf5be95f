// Package config loads the cellomold project configuration.
//
// The configuration holds the workshop constants that the commands would
// otherwise take as flags: fabrication constants (rib thickness, glue
// clearance, mold offset), the reference body dimensions used by measure,
// the mold block sizes and the flatten/join tolerances.
//
// Two file formats are accepted:
//   - cellomold.jsonc (JSON with comments and trailing commas)
//   - cellomold.yaml
//
// Every field is optional. Missing fields keep the documented defaults, so
// an empty file is a valid configuration.
package config
