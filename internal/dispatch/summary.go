// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Summary holds the counts of a batch run.
type Summary struct {
	Converted int `json:"converted" yaml:"converted"`
	Primary   int `json:"primary" yaml:"primary"`
	Fallback  int `json:"fallback" yaml:"fallback"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Summarize tallies outcomes.
func Summarize(outcomes []types.ConversionOutcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if !o.Success {
			s.Failed++
			continue
		}
		s.Converted++
		switch o.Method {
		case types.MethodPrimary:
			s.Primary++
		case types.MethodFallback:
			s.Fallback++
		}
	}
	return s
}

// Total returns the number of files processed.
func (s Summary) Total() int {
	return s.Converted + s.Failed
}

// HasFailures reports whether any file failed conversion.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s Summary) String() string {
	return fmt.Sprintf("Batch summary: %d converted (%d primary, %d fallback), %d failed (total: %d)",
		s.Converted, s.Primary, s.Fallback, s.Failed, s.Total())
}

// reportEntry is one file in the YAML report.
type reportEntry struct {
	Source   string `yaml:"source"`
	Output   string `yaml:"output"`
	Success  bool   `yaml:"success"`
	Method   string `yaml:"method,omitempty"`
	Stage    string `yaml:"stage,omitempty"`
	Images   int    `yaml:"images"`
	Error    string `yaml:"error,omitempty"`
	Duration string `yaml:"duration"`
}

type report struct {
	Summary Summary       `yaml:"summary"`
	Files   []reportEntry `yaml:"files"`
}

// marshalReport renders outcomes as YAML, files sorted by relative source path.
func marshalReport(outcomes []types.ConversionOutcome) ([]byte, error) {
	sorted := make([]types.ConversionOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Source.RelPath < sorted[j].Source.RelPath
	})

	r := report{Summary: Summarize(outcomes), Files: make([]reportEntry, 0, len(sorted))}
	for _, o := range sorted {
		r.Files = append(r.Files, reportEntry{
			Source:   filepath.ToSlash(o.Source.RelPath),
			Output:   o.OutputPath,
			Success:  o.Success,
			Method:   string(o.Method),
			Stage:    o.Stage,
			Images:   o.Images,
			Error:    o.ErrorMessage(),
			Duration: o.Duration.Round(time.Millisecond).String(),
		})
	}

	data, err := yaml.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return data, nil
}

// WriteReport writes the YAML report for outcomes to path.
func WriteReport(path string, outcomes []types.ConversionOutcome) error {
	data, err := marshalReport(outcomes)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
