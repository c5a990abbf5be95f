package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// Default tolerances for the flatten and join steps.
const (
	// DefaultFlattenTolMM is the maximum chord deviation when curves are
	// sampled into line segments.
	DefaultFlattenTolMM = 0.2

	// DefaultJoinTolMM is the maximum endpoint gap that still counts as
	// connected when segments are chained.
	DefaultJoinTolMM = 0.01
)

// Config is the parsed project configuration.
type Config struct {
	// Fabrication carries rib thickness, glue clearance and mold offset.
	Fabrication model.FabricationSpec `json:"fabrication" yaml:"fabrication"`

	// Targets are the reference body dimensions for measure.
	Targets model.BodyTargets `json:"targets" yaml:"targets"`

	// Mold controls block flats and pin holes.
	Mold model.MoldParams `json:"mold" yaml:"mold"`

	// FlattenTolMM is the curve sampling tolerance.
	FlattenTolMM float64 `json:"flattenTolMm" yaml:"flattenTolMm"`

	// JoinTolMM is the endpoint matching tolerance.
	JoinTolMM float64 `json:"joinTolMm" yaml:"joinTolMm"`

	// Path is the file the configuration was read from. Empty for the
	// built-in defaults.
	Path string `json:"-" yaml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Fabrication:  model.DefaultFabricationSpec(),
		Targets:      model.DefaultBodyTargets(),
		Mold:         model.DefaultMoldParams(),
		FlattenTolMM: DefaultFlattenTolMM,
		JoinTolMM:    DefaultJoinTolMM,
	}
}

// Load reads and parses a configuration file. The format is chosen by the
// file extension: .yaml and .yml are YAML, everything else is JSONC.
//
// Fields absent from the file keep their defaults because decoding happens
// on top of Default().
//
// A missing file is reported as a CLIError with ExitInputNotFound; a file
// that cannot be parsed as a CLIError with ExitConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitInputNotFound,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse config at %s", path),
				err,
			)
		}
	default:
		// jsonc.ToJSON strips comments and trailing commas so the standard
		// JSON decoder can take over.
		clean := jsonc.ToJSON(data)
		if len(strings.TrimSpace(string(clean))) > 0 {
			if err := json.Unmarshal(clean, cfg); err != nil {
				return nil, model.WrapCLIError(
					model.ExitConfigError,
					fmt.Sprintf("failed to parse config at %s", path),
					err,
				)
			}
		}
	}

	cfg.Path = path
	return cfg, nil
}

// candidates returns the implicit search locations under dir, in priority
// order.
func candidates(dir string) []string {
	return []string{
		filepath.Join(dir, "cellomold.jsonc"),
		filepath.Join(dir, "cellomold.yaml"),
		filepath.Join(dir, ".cellomold", "config.jsonc"),
	}
}

// Find resolves which configuration file to use.
//
// An explicit path (from --config) always wins and must exist. Otherwise
// the working directory is searched for cellomold.jsonc, cellomold.yaml
// and .cellomold/config.jsonc, in that order. An empty result with a nil
// error means no file was found and the defaults apply.
func Find(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(
				model.ExitInputNotFound,
				fmt.Sprintf("config file not found: %s", explicit),
				err,
			)
		}
		return explicit, nil
	}

	for _, path := range candidates(dir) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// Resolve finds, loads and validates the configuration in one step. This is
// what the CLI calls before running any command.
func Resolve(explicit, dir string) (*Config, error) {
	path, err := Find(explicit, dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return nil, model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid config %s: %s", path, strings.Join(msgs, "; ")),
		)
	}
	return cfg, nil
}
