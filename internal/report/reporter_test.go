package report

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stp/internal/config"
	"stp/internal/domain"
)

func testReporter(t *testing.T) (*Reporter, *config.Config) {
	t.Helper()
	cfg := config.New()
	cfg.OutDir = t.TempDir()
	return NewReporter(cfg, zerolog.Nop()), cfg
}

func passedRecord(script string, n int) *domain.RunRecord {
	rec := domain.NewRunRecord(script)
	rec.Executed = n
	return rec
}

func failedRecord(script string) *domain.RunRecord {
	rec := domain.NewRunRecord(script)
	rec.Executed = 2
	rec.Failed = 1
	rec.Failures = []domain.Failure{{
		TestID:   script + "::Test_broken",
		Messages: []string{script + "::Test_broken: assertion failed (suite.test:9)"},
	}}
	return rec
}

func TestReporter_MarkerOnCleanRun(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.Finish(passedRecord("editing.test", 3)))

	info, err := os.Stat(cfg.MarkerPath("editing.test"))
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "marker is an empty file")
	assert.NoFileExists(t, cfg.FailureLogPath())
}

func TestReporter_NoMarkerOnFailedRun(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.Finish(failedRecord("editing.test")))

	assert.NoFileExists(t, cfg.MarkerPath("editing.test"))
	data, err := os.ReadFile(cfg.FailureLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "From editing.test (run "+failureRunID(t, data)+")")
	assert.Contains(t, string(data), "Found errors in editing.test::Test_broken:")
	assert.Contains(t, string(data), "assertion failed (suite.test:9)")
}

// failureRunID pulls the run id back out of the written block so the
// header assertion does not hardcode a uuid.
func failureRunID(t *testing.T, data []byte) string {
	t.Helper()
	s := string(data)
	start := strings.Index(s, "(run ")
	require.GreaterOrEqual(t, start, 0)
	rest := s[start+len("(run "):]
	end := strings.IndexByte(rest, ')')
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestReporter_FailureLogAccumulates(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.Finish(failedRecord("first.test")))
	require.NoError(t, r.Finish(failedRecord("second.test")))

	data, err := os.ReadFile(cfg.FailureLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "From first.test")
	assert.Contains(t, string(data), "From second.test")
}

func TestReporter_MessageLogCleanRun(t *testing.T) {
	r, cfg := testReporter(t)
	rec := passedRecord("editing.test", 4)
	rec.AddMessage("Test_flaky failed on attempt 1:")
	rec.AddMessage("  editing.test::Test_flaky: connection refused")

	require.NoError(t, r.Finish(rec))

	data, err := os.ReadFile(cfg.MessageLogPath())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "--- editing.test (run ")
	assert.Contains(t, text, "Test_flaky failed on attempt 1:")
	assert.Contains(t, text, "Executed 4 tests")
	assert.NotContains(t, text, "FAILED")
}

func TestReporter_MessageLogEmptyRun(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.Finish(passedRecord("editing.test", 0)))

	data, err := os.ReadFile(cfg.MessageLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "NO tests executed")
}

func TestReporter_MessageLogFailureAndSkipDetail(t *testing.T) {
	r, cfg := testReporter(t)
	rec := failedRecord("editing.test")
	rec.Skips = append(rec.Skips,
		domain.SkipEntry{TestID: "editing.test::Test_gui", Reason: "no display"},
		domain.SkipEntry{TestID: "editing.test::Test_quiet"},
	)

	require.NoError(t, r.Finish(rec))

	data, err := os.ReadFile(cfg.MessageLogPath())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "1 FAILED:")
	assert.Contains(t, text, "  editing.test::Test_broken")
	assert.Contains(t, text, "SKIPPED editing.test::Test_gui: no display")
	assert.Contains(t, text, "SKIPPED editing.test::Test_quiet\n")
}

func TestReporter_MessageLogAccumulates(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.Finish(passedRecord("editing.test", 1)))
	require.NoError(t, r.Finish(passedRecord("editing.test", 2)))

	data, err := os.ReadFile(cfg.MessageLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Executed 1 tests")
	assert.Contains(t, string(data), "Executed 2 tests")
}

func TestReporter_DumpLog(t *testing.T) {
	r, cfg := testReporter(t)

	require.NoError(t, r.DumpLog("tests_editing.test::Test_undo", "server", "server output\n"))

	data, err := os.ReadFile(cfg.DumpPath("tests_editing.test::Test_undo", "server"))
	require.NoError(t, err)
	assert.Equal(t, "server output\n", string(data))
}

func TestReporter_FinishCreatesOutDir(t *testing.T) {
	cfg := config.New()
	cfg.OutDir = t.TempDir() + "/nested/out"
	r := NewReporter(cfg, zerolog.Nop())

	require.NoError(t, r.Finish(passedRecord("editing.test", 1)))
	assert.FileExists(t, cfg.MarkerPath("editing.test"))
}
