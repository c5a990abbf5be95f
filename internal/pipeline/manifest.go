package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/cellomold/internal/geometry"
	"github.com/shinji-kodama/cellomold/internal/measure"
	"github.com/shinji-kodama/cellomold/internal/model"
	"github.com/shinji-kodama/cellomold/internal/mold"
)

// ManifestName is the file name of the manifest inside the output
// directory.
const ManifestName = "manifest.yaml"

// StepRecord is one completed step of a run.
type StepRecord struct {
	Name string `json:"name" yaml:"name"`

	// Output is the file the step wrote, if any.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Stats is the step-specific summary (FlattenStats, JoinStats, ...).
	Stats any `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// MoldRecord summarises the mold stage.
type MoldRecord struct {
	Files    mold.Files       `json:"files" yaml:"files"`
	Params   model.MoldParams `json:"params" yaml:"params"`
	Corners  int              `json:"corners" yaml:"corners"`
	Pins     []model.Circle   `json:"pins" yaml:"pins"`
	Bounds   geometry.BBox    `json:"bounds" yaml:"bounds"`
	Warnings []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Manifest records everything a run did. It is written to
// <out-dir>/manifest.yaml whether the run succeeded or not.
type Manifest struct {
	RunID      string    `json:"runId" yaml:"runId"`
	Tool       string    `json:"tool" yaml:"tool"`
	Version    string    `json:"version" yaml:"version"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`

	Input  string `json:"input" yaml:"input"`
	Config string `json:"config" yaml:"config"`

	Fabrication model.FabricationSpec `json:"fabrication" yaml:"fabrication"`

	Steps      []StepRecord    `json:"steps" yaml:"steps"`
	Validation *Validation     `json:"validation,omitempty" yaml:"validation,omitempty"`
	Measure    *measure.Report `json:"measure,omitempty" yaml:"measure,omitempty"`
	Mold       *MoldRecord     `json:"mold,omitempty" yaml:"mold,omitempty"`
	Preview    string          `json:"preview,omitempty" yaml:"preview,omitempty"`

	// Error is the message of the step that stopped the run.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// addStep appends a completed step.
func (m *Manifest) addStep(name, output string, stats any) {
	m.Steps = append(m.Steps, StepRecord{Name: name, Output: output, Stats: stats})
}

// Marshal serializes the manifest as YAML with a header comment.
func (m *Manifest) Marshal() ([]byte, error) {
	body, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	header := fmt.Sprintf(
		"# Generated by %s %s for %s\n# DO NOT EDIT - this file is rewritten on every pipeline run\n",
		m.Tool, m.Version, filepath.Base(m.Input),
	)
	return []byte(header + string(body)), nil
}

// WriteManifest writes m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest parses a manifest written by WriteManifest. Step stats come
// back as generic maps.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
