package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SummittDweller/cb-file-finder/internal/policy"
	"gopkg.in/yaml.v3"
)

// SummaryConfig records what a run was asked to do
type SummaryConfig struct {
	Root        string `yaml:"root"`
	Source      string `yaml:"source"`
	Pattern     string `yaml:"pattern,omitempty"`
	SkipRows    int    `yaml:"skiprows"`
	Upload      bool   `yaml:"upload"`
	Transcripts bool   `yaml:"transcripts"`
	Mode        string `yaml:"mode,omitempty"`
}

// SummaryCounts tallies a run
type SummaryCounts struct {
	Targets  int    `yaml:"targets"`
	Rows     int    `yaml:"rows"`
	Perfect  int    `yaml:"perfect"`
	Warned   int    `yaml:"warned"`
	Poor     int    `yaml:"poor"`
	NoMatch  int    `yaml:"nomatch"`
	Copied   int    `yaml:"copied"`
	Exists   int    `yaml:"exists"`
	Skipped  int    `yaml:"skipped"`
	Pool     int    `yaml:"pool"`
	Duration string `yaml:"duration"`
}

// Summary is the YAML record written at the end of a run
type Summary struct {
	RunID     string        `yaml:"runid"`
	Timestamp string        `yaml:"timestamp"`
	Config    SummaryConfig `yaml:"config"`
	Counts    SummaryCounts `yaml:"counts"`
}

// Tally fills the tier counts from each row's final score
func (s *Summary) Tally(t *Table) {
	s.Counts.Rows = t.Len()
	for _, r := range t.Rows {
		final, ok := r.FinalScore()
		if !ok {
			s.Counts.NoMatch++
			continue
		}
		switch policy.TierFor(final) {
		case policy.TierSuccess:
			s.Counts.Perfect++
		case policy.TierWarning:
			s.Counts.Warned++
		default:
			s.Counts.Poor++
		}
	}
}

// SaveSummary writes the summary to dir/run_<timestamp>.yaml and returns the path
func SaveSummary(dir string, s Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	if s.Timestamp == "" {
		s.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.yaml", s.Timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}

	return path, nil
}

// LoadSummary reads a summary written by SaveSummary
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &s, nil
}
