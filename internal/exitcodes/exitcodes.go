// Package exitcodes defines the process exit codes used by stp. External
// build tooling keys off these together with the marker artifact.
package exitcodes

const (
	Success     = 0 // All tests passed or were skipped
	TestFailure = 1 // One or more test failures recorded
	RuntimeErr  = 2 // Forced abort: timeout or runtime crash
)
