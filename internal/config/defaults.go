package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultOutDir is where report artifacts (test.log, messages, markers) go
	DefaultOutDir = "."
	// DefaultOutputJSONFile is the saved run-results file name
	DefaultOutputJSONFile = "run-results.json"
	// DefaultOutputJSONDir is the directory holding saved run results
	DefaultOutputJSONDir = "storage"
	// DefaultTimeout is the per-test deadline
	DefaultTimeout = 60 * time.Second
	// DefaultCancelGrace is how long a cancelled test body may take to
	// return before the process is forcibly aborted
	DefaultCancelGrace = 5 * time.Second
	// DefaultMaxRetries is the number of extra attempts for a failed test
	DefaultMaxRetries = 10
	// DefaultFlakyDelay is the pause between retry attempts
	DefaultFlakyDelay = 2 * time.Second
	// DefaultCloseRounds bounds the close-extra-windows cleanup loop
	DefaultCloseRounds = 10
	// DefaultConfigFile is the optional YAML overlay looked up in the project
	DefaultConfigFile = ".stp.yaml"
)

const (
	// EnvNoRetry disables retries when set to anything other than "" or "0"
	EnvNoRetry = "TEST_NO_RETRY"
	// EnvCoverage enables the profiling side-channel when present
	EnvCoverage = "COVERAGE"
	// EnvHistoryDSN enables the MySQL run-history sink when set
	EnvHistoryDSN = "STP_HISTORY_DSN"
)
