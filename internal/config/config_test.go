package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected retries %d, got %d", DefaultMaxRetries, cfg.MaxRetries)
	}
	if cfg.FlakyDelay != DefaultFlakyDelay {
		t.Errorf("expected flaky delay %v, got %v", DefaultFlakyDelay, cfg.FlakyDelay)
	}
	if cfg.CloseRounds != DefaultCloseRounds {
		t.Errorf("expected close rounds %d, got %d", DefaultCloseRounds, cfg.CloseRounds)
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load(Flags{
		Timeout:    5 * time.Second,
		Retries:    3,
		FlakyDelay: 100 * time.Millisecond,
		OutDir:     "out",
		RuntimeCmd: "interp --batch",
	})

	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.MaxRetries)
	}
	if cfg.FlakyDelay != 100*time.Millisecond {
		t.Errorf("expected 100ms flaky delay, got %v", cfg.FlakyDelay)
	}
	if cfg.OutDir != "out" {
		t.Errorf("expected out dir %q, got %q", "out", cfg.OutDir)
	}
	if cfg.RuntimeCmd != "interp --batch" {
		t.Errorf("expected runtime cmd, got %q", cfg.RuntimeCmd)
	}
}

func TestLoad_ZeroRetriesIsKept(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := Load(Flags{Retries: 0})
	if cfg.MaxRetries != 0 {
		t.Errorf("expected retries 0 to disable retries, got %d", cfg.MaxRetries)
	}
}

func TestApplyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultConfigFile)
	content := `
timeout: 30s
flaky_delay: 500ms
retries: 2
out_dir: artifacts
runtime_cmd: interp --batch
runtime_logs:
  - server.log
coverage_cmd: profiler --out prof.dat
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := New()
	if err := cfg.applyFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if cfg.FlakyDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms flaky delay, got %v", cfg.FlakyDelay)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("expected 2 retries, got %d", cfg.MaxRetries)
	}
	if cfg.OutDir != "artifacts" {
		t.Errorf("expected artifacts out dir, got %q", cfg.OutDir)
	}
	if len(cfg.RuntimeLogs) != 1 || cfg.RuntimeLogs[0] != "server.log" {
		t.Errorf("expected runtime logs [server.log], got %v", cfg.RuntimeLogs)
	}
	if cfg.CoverageCmd == "" {
		t.Error("expected coverage command to be set")
	}
}

func TestApplyFile_Missing(t *testing.T) {
	cfg := New()
	if err := cfg.applyFile(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("missing config file should not error, got %v", err)
	}
}

func TestRetryDisabled(t *testing.T) {
	cfg := New()

	tests := []struct {
		value    string
		disabled bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"yes", true},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			t.Setenv(EnvNoRetry, tt.value)
			if got := cfg.RetryDisabled(); got != tt.disabled {
				t.Errorf("TEST_NO_RETRY=%q: expected %v, got %v", tt.value, tt.disabled, got)
			}
		})
	}
}

func TestCoverageEnabled(t *testing.T) {
	cfg := New()
	if cfg.CoverageEnabled() {
		t.Skip("COVERAGE set in environment")
	}
	t.Setenv(EnvCoverage, "")
	if !cfg.CoverageEnabled() {
		t.Error("presence of COVERAGE should enable the side-channel even when empty")
	}
}

func TestMarkerPath(t *testing.T) {
	cfg := New()
	cfg.OutDir = "/tmp/out"
	if got := cfg.MarkerPath("/src/tests/editing.test"); got != "/tmp/out/editing.res" {
		t.Errorf("unexpected marker path %q", got)
	}
}

func TestDumpPath(t *testing.T) {
	cfg := New()
	cfg.OutDir = "/tmp/out"
	got := cfg.DumpPath("tests/editing.test::Test_undo", "server")
	want := "/tmp/out/tests_editing.test.Test_undo_server.testlog"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: change into
// dir for the duration of the test, restoring the previous directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Error(err)
		}
	})
}
