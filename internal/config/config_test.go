package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cellomold/internal/model"
)

// testdataPath returns the absolute path to a fixture in this package's
// testdata directory, independent of where the test runner was started.
func testdataPath(t *testing.T, name string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed to return file info")
	return filepath.Join(filepath.Dir(filename), "testdata", name)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, model.DefaultFabricationSpec(), cfg.Fabrication)
	assert.Equal(t, model.DefaultBodyTargets(), cfg.Targets)
	assert.Equal(t, model.DefaultMoldParams(), cfg.Mold)
	assert.Equal(t, DefaultFlattenTolMM, cfg.FlattenTolMM)
	assert.Equal(t, DefaultJoinTolMM, cfg.JoinTolMM)
	assert.Empty(t, cfg.Path)
}

// TestLoad_JSONC verifies comment stripping, trailing commas and that
// fields missing from the file keep their defaults.
func TestLoad_JSONC(t *testing.T) {
	path := testdataPath(t, "cellomold.jsonc")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, 2.5, cfg.Fabrication.RibThicknessMM)
	assert.Equal(t, 2.8, cfg.Fabrication.MoldOffsetMM)
	assert.Equal(t, 730.0, cfg.Targets.LengthMM)
	assert.Equal(t, model.DefaultUpperBoutMM, cfg.Targets.UpperBoutMM)
	assert.Equal(t, model.AxisY, cfg.Mold.Axis)
	assert.Equal(t, 8.0, cfg.Mold.PinDiamMM)
	assert.Equal(t, 62.0, cfg.Mold.NeckFlatMM)
	assert.Equal(t, 0.1, cfg.FlattenTolMM)
	assert.Equal(t, DefaultJoinTolMM, cfg.JoinTolMM)

	assert.Empty(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(testdataPath(t, "cellomold.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 65.0, cfg.Mold.NeckFlatMM)
	assert.Equal(t, 40.0, cfg.Mold.CornerAngleDeg)
	assert.Equal(t, model.AxisX, cfg.Mold.Axis)
	assert.Equal(t, model.DefaultMoldThicknessMM, cfg.Fabrication.MoldThicknessMM)
	assert.Equal(t, 0.5, cfg.FlattenTolMM)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"empty.jsonc", "empty.yaml"} {
		path := filepath.Join(dir, name)
		writeFile(t, path, "")
		cfg, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, Default().Fabrication, cfg.Fabrication, name)
	}

	path := filepath.Join(dir, "comments.jsonc")
	writeFile(t, path, "// nothing configured yet\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Mold, cfg.Mold)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInputNotFound, cliErr.Code)

	path := filepath.Join(t.TempDir(), "broken.jsonc")
	writeFile(t, path, `{"fabrication": [1, 2]}`)
	_, err = Load(path)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)

	path = filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "mold: [oops\n")
	_, err = Load(path)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestValidate_ReportsEverySection(t *testing.T) {
	cfg, err := Load(testdataPath(t, "bad-offset.jsonc"))
	require.NoError(t, err)

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "fabrication", errs[0].Field)
	assert.Contains(t, errs[0].Message, "does not equal rib thickness + glue clearance")
	assert.NotContains(t, errs[0].Message, "fabrication:")

	cfg = Default()
	cfg.Targets.CBoutMM = 500
	cfg.Mold.Axis = "z"
	cfg.JoinTolMM = 0
	errs = cfg.Validate()

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{"targets", "mold", "joinTolMm"}, fields)
	assert.Contains(t, errs[0].Message, "C-bout")
	assert.Contains(t, errs[0].Error(), "config validation error: targets:")
}

func TestFind(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"nothing", nil, ""},
		{"dot dir only", []string{".cellomold/config.jsonc"}, ".cellomold/config.jsonc"},
		{"yaml beats dot dir", []string{"cellomold.yaml", ".cellomold/config.jsonc"}, "cellomold.yaml"},
		{"jsonc beats yaml", []string{"cellomold.yaml", "cellomold.jsonc"}, "cellomold.jsonc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), "{}")
			}

			got, err := Find("", dir)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestFind_Explicit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cellomold.jsonc"), "{}")

	explicit := testdataPath(t, "cellomold.yaml")
	got, err := Find(explicit, dir)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	_, err = Find(filepath.Join(dir, "nope.yaml"), dir)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitInputNotFound, cliErr.Code)
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Resolve(testdataPath(t, "cellomold.jsonc"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 730.0, cfg.Targets.LengthMM)

	_, err = Resolve(testdataPath(t, "bad-offset.jsonc"), t.TempDir())
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "fabrication:")
}
