package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stp/internal/config"
	"stp/internal/domain"
)

// RunStore persists the last run's full results as JSON for the failures
// viewer and the history sink.
type RunStore struct {
	cfg *config.Config
}

// NewRunStore returns a store reading/writing the config's output JSON path.
func NewRunStore(cfg *config.Config) *RunStore {
	return &RunStore{cfg: cfg}
}

// Save writes the finished run to the configured JSON output file.
func (s *RunStore) Save(rec *domain.RunRecord, duration time.Duration) error {
	// Synthetic failures (e.g. load errors) count as failed but were
	// never executed, so passed is derived from the executed total.
	passed := rec.Executed - len(rec.Skips) - rec.Failed
	if passed < 0 {
		passed = 0
	}

	output := domain.RunOutput{
		Meta: domain.RunMeta{
			RunID:           rec.RunID,
			Script:          rec.Script,
			Executed:        rec.Executed,
			Passed:          passed,
			Failed:          rec.Failed,
			Skipped:         len(rec.Skips),
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Timestamp:       time.Now().Format(time.RFC3339),
		},
		Failures: rec.Failures,
		Skips:    rec.Skips,
		Messages: rec.Messages,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last saved run from the configured JSON output file.
func (s *RunStore) Load() (*domain.RunOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.RunOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}
