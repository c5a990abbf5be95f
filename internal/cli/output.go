package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	switch f {
	case formatText, formatJSON, formatYAML:
		return true
	default:
		return false
	}
}

// encode writes v to w as indented JSON or as YAML.
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		return enc.Close()
	default:
		// MarshalIndent produces human-readable JSON with 2-space indentation.
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

// printResult writes v in the selected structured format, or calls text
// for the human-readable form.
func printResult(w io.Writer, v interface{}, text func(io.Writer)) error {
	if IsStructuredOutput() {
		return encode(w, outputFormat, v)
	}
	text(w)
	return nil
}
