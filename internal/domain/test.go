package domain

import "fmt"

// Status is the lifecycle state of a test case.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// TestCase represents one discovered test procedure and its run state.
type TestCase struct {
	Name       string   // Procedure name, e.g. Test_foo
	Script     string   // Path to the script the procedure was found in
	Status     Status   // Current lifecycle status
	Errors     []string // Accumulated error messages, in order
	SkipReason string   // Set when Status is StatusSkipped
	Attempts   int      // Number of times the body has been invoked
}

// NewTestCase creates a pending TestCase for a discovered procedure.
func NewTestCase(script, name string) *TestCase {
	return &TestCase{
		Name:   name,
		Script: script,
		Status: StatusPending,
	}
}

// ID returns the fully-qualified test id (script path + procedure name).
func (tc *TestCase) ID() string {
	return tc.Script + "::" + tc.Name
}

// AddError appends an error message tagged with the test id and, when
// known, the source location it originated from.
func (tc *TestCase) AddError(message, location string) {
	if location != "" {
		tc.Errors = append(tc.Errors, fmt.Sprintf("%s: %s (%s)", tc.ID(), message, location))
		return
	}
	tc.Errors = append(tc.Errors, fmt.Sprintf("%s: %s", tc.ID(), message))
}

// ClearErrors discards accumulated errors, e.g. before a retry attempt
// or when the body signalled a skip.
func (tc *TestCase) ClearErrors() {
	tc.Errors = nil
}
