package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the harness
type Config struct {
	// Project settings
	ProjectPath string

	// Output settings
	OutDir         string
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	RuntimeCmd  string        // command that interprets the test script
	RuntimeLogs []string      // log files captured as .testlog dumps on failure
	CoverageCmd string        // profiler command for the coverage side-channel
	Timeout     time.Duration // per-test deadline
	CancelGrace time.Duration // grace after cancel before forced abort
	MaxRetries  int           // extra attempts for a failed test
	FlakyDelay  time.Duration // pause between retry attempts
	CloseRounds int           // bound on the window-closing cleanup loop
	Verbose     bool

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Timeout    time.Duration
	Retries    int
	FlakyDelay time.Duration
	OutDir     string
	RuntimeCmd string
	Filter     string
	Verbose    bool
	Limit      int // history listing limit
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:    DefaultProjectPath,
		OutDir:         DefaultOutDir,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Timeout:        DefaultTimeout,
		CancelGrace:    DefaultCancelGrace,
		MaxRetries:     DefaultMaxRetries,
		FlakyDelay:     DefaultFlakyDelay,
		CloseRounds:    DefaultCloseRounds,
		Flags:          Flags{Retries: DefaultMaxRetries},
	}
}

// Load creates a config, applies the optional YAML overlay from the
// project directory, loads .env, and folds in flag overrides.
func Load(flags Flags) *Config {
	cfg := New()

	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(cfg.ProjectPath, ".env"))

	if err := cfg.applyFile(filepath.Join(cfg.ProjectPath, DefaultConfigFile)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg.Flags = flags
	if flags.Timeout > 0 {
		cfg.Timeout = flags.Timeout
	}
	if flags.Retries >= 0 {
		cfg.MaxRetries = flags.Retries
	}
	if flags.FlakyDelay > 0 {
		cfg.FlakyDelay = flags.FlakyDelay
	}
	if flags.OutDir != "" {
		cfg.OutDir = flags.OutDir
	}
	if flags.RuntimeCmd != "" {
		cfg.RuntimeCmd = flags.RuntimeCmd
	}
	cfg.Verbose = flags.Verbose

	return cfg
}

// fileConfig is the YAML overlay shape (.stp.yaml)
type fileConfig struct {
	Timeout     string   `yaml:"timeout"`
	FlakyDelay  string   `yaml:"flaky_delay"`
	Retries     *int     `yaml:"retries"`
	CloseRounds *int     `yaml:"close_rounds"`
	OutDir      string   `yaml:"out_dir"`
	RuntimeCmd  string   `yaml:"runtime_cmd"`
	RuntimeLogs []string `yaml:"runtime_logs"`
	CoverageCmd string   `yaml:"coverage_cmd"`
}

// applyFile merges the optional YAML config file into cfg. A missing file
// is not an error.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config file %s: invalid timeout: %w", path, err)
		}
		c.Timeout = d
	}
	if fc.FlakyDelay != "" {
		d, err := time.ParseDuration(fc.FlakyDelay)
		if err != nil {
			return fmt.Errorf("config file %s: invalid flaky_delay: %w", path, err)
		}
		c.FlakyDelay = d
	}
	if fc.Retries != nil {
		c.MaxRetries = *fc.Retries
	}
	if fc.CloseRounds != nil && *fc.CloseRounds > 0 {
		c.CloseRounds = *fc.CloseRounds
	}
	if fc.OutDir != "" {
		c.OutDir = fc.OutDir
	}
	if fc.RuntimeCmd != "" {
		c.RuntimeCmd = fc.RuntimeCmd
	}
	if len(fc.RuntimeLogs) > 0 {
		c.RuntimeLogs = fc.RuntimeLogs
	}
	if fc.CoverageCmd != "" {
		c.CoverageCmd = fc.CoverageCmd
	}
	return nil
}

// RetryDisabled reports whether the TEST_NO_RETRY toggle disables retries.
// Empty or "0" keeps retries enabled, any other value disables them.
func (c *Config) RetryDisabled() bool {
	v := os.Getenv(EnvNoRetry)
	return v != "" && v != "0"
}

// CoverageEnabled reports whether the coverage side-channel should run.
func (c *Config) CoverageEnabled() bool {
	_, ok := os.LookupEnv(EnvCoverage)
	return ok
}

// HistoryDSN returns the MySQL DSN for the run-history sink, empty when
// history recording is disabled.
func (c *Config) HistoryDSN() string {
	return os.Getenv(EnvHistoryDSN)
}

// FailureLogPath is the cumulative failure log (appended, never truncated).
func (c *Config) FailureLogPath() string {
	return filepath.Join(c.OutDir, "test.log")
}

// MessageLogPath is the cumulative message log (appended, never truncated).
func (c *Config) MessageLogPath() string {
	return filepath.Join(c.OutDir, "messages")
}

// MarkerPath is the success marker artifact for the given script, an empty
// file named after the script base.
func (c *Config) MarkerPath(script string) string {
	base := filepath.Base(script)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(c.OutDir, base+".res")
}

// DumpPath is where a captured diagnostic log for a failed test goes.
func (c *Config) DumpPath(testID, logName string) string {
	return filepath.Join(c.OutDir, sanitize(testID)+"_"+logName+".testlog")
}

// GetOutputPath returns the absolute path to the saved run-results JSON
// file, so run and the failures viewer always use the same file
// regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// sanitize makes a test id safe to use as a file name component.
func sanitize(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "::", ".", ":", "_")
	return r.Replace(id)
}
