package domain

import (
	"time"

	"github.com/google/uuid"
)

// Failure is one failed test and its collected messages.
type Failure struct {
	TestID   string   `json:"test_id"`
	Messages []string `json:"messages"`
}

// SkipEntry is one skipped test and the reason it gave.
type SkipEntry struct {
	TestID string `json:"test_id"`
	Reason string `json:"reason"`
}

// RunRecord aggregates the outcome of one harness invocation. It is owned
// by the orchestrator and threaded explicitly through the retry controller
// and reporter; there is no package-level run state.
type RunRecord struct {
	RunID     string      `json:"run_id"`
	Script    string      `json:"script"`
	StartedAt time.Time   `json:"started_at"`
	Executed  int         `json:"executed"`
	Failed    int         `json:"failed"`
	Failures  []Failure   `json:"failures,omitempty"`
	Skips     []SkipEntry `json:"skips,omitempty"`
	Messages  []string    `json:"messages,omitempty"`
}

// NewRunRecord creates a RunRecord for a run over the given script.
func NewRunRecord(script string) *RunRecord {
	return &RunRecord{
		RunID:     uuid.NewString(),
		Script:    script,
		StartedAt: time.Now(),
	}
}

// RecordResult folds a finished TestCase into the run totals.
func (r *RunRecord) RecordResult(tc *TestCase) {
	r.Executed++
	switch tc.Status {
	case StatusFailed:
		r.Failed++
		msgs := make([]string, len(tc.Errors))
		copy(msgs, tc.Errors)
		r.Failures = append(r.Failures, Failure{TestID: tc.ID(), Messages: msgs})
	case StatusSkipped:
		r.Skips = append(r.Skips, SkipEntry{TestID: tc.ID(), Reason: tc.SkipReason})
	}
}

// AddMessage appends an informational message to the run log.
func (r *RunRecord) AddMessage(msg string) {
	r.Messages = append(r.Messages, msg)
}

// AddSyntheticFailure records a failure that has no executed TestCase
// behind it, such as an error while evaluating the script itself.
func (r *RunRecord) AddSyntheticFailure(testID string, messages ...string) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{TestID: testID, Messages: messages})
}

// RunMeta is the summary block persisted with saved run results.
type RunMeta struct {
	RunID           string  `json:"run_id"`
	Script          string  `json:"script"`
	Executed        int     `json:"executed"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
}

// RunOutput is the complete persisted form of a finished run.
type RunOutput struct {
	Meta     RunMeta     `json:"meta"`
	Failures []Failure   `json:"failures,omitempty"`
	Skips    []SkipEntry `json:"skips,omitempty"`
	Messages []string    `json:"messages,omitempty"`
}
