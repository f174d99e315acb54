// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ppm-batch/pkg/types"
)

// Report summarizes one batch run.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	SourceDir  string    `json:"source_dir" yaml:"source_dir"`
	TargetExt  string    `json:"target_ext" yaml:"target_ext"`
	Format     string    `json:"format" yaml:"format"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Discovered is the number of source files matched.
	Discovered int `json:"discovered" yaml:"discovered"`

	// Converted is the number of output files written.
	Converted int `json:"converted" yaml:"converted"`

	// FailedSource is the file that stopped the run, if any.
	FailedSource string `json:"failed_source,omitempty" yaml:"failed_source,omitempty"`

	// Error is the message of the error that stopped the run, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Conversions []types.Conversion `json:"conversions" yaml:"conversions"`
}

// Complete reports whether every discovered file was converted.
func (r Report) Complete() bool {
	return r.Error == "" && r.Converted == r.Discovered
}

// Unprocessed returns how many discovered files were never reached.
func (r Report) Unprocessed() int {
	n := r.Discovered - r.Converted
	if r.FailedSource != "" {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

func (r *Report) finish(at time.Time, failed string, err error) {
	r.FinishedAt = at.UTC()
	r.Converted = len(r.Conversions)
	r.FailedSource = failed
	if err != nil {
		r.Error = err.Error()
	}
}

// WriteYAML writes the report to path, creating the parent directory.
func (r Report) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
