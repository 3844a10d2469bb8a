package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/domain"
)

func newExec(t *testing.T) *ExecRuntime {
	t.Helper()
	cfg := config.New()
	return NewExecRuntime(cfg, discovery.NewScanner(), zerolog.Nop())
}

func TestClassify_CleanPass(t *testing.T) {
	r := newExec(t)
	res := r.classify("", "", true)
	assert.Equal(t, domain.OutcomePassed, res.Outcome)
	assert.Empty(t, r.PendingOutput())
}

func TestClassify_SkipMarker(t *testing.T) {
	r := newExec(t)
	res := r.classify("skip: requires network\n", "", true)
	assert.Equal(t, domain.OutcomeSkipped, res.Outcome)
	assert.Equal(t, "requires network", res.SkipReason)
}

func TestClassify_SkipMarkerIsCaseInsensitive(t *testing.T) {
	r := newExec(t)
	res := r.classify("Skip: no display\n", "", true)
	assert.Equal(t, domain.OutcomeSkipped, res.Outcome)
	assert.Equal(t, "no display", res.SkipReason)
}

func TestClassify_SkipWinsOverExitStatus(t *testing.T) {
	// A skip announced before the process dies still counts as a skip.
	r := newExec(t)
	res := r.classify("skip: flaky env\n", "something broke\n", false)
	assert.Equal(t, domain.OutcomeSkipped, res.Outcome)
	assert.Equal(t, "flaky env", res.SkipReason)
}

func TestClassify_FirstSkipReasonWins(t *testing.T) {
	r := newExec(t)
	res := r.classify("skip: first\nskip: second\n", "", true)
	assert.Equal(t, "first", res.SkipReason)
}

func TestClassify_PendingOutputAccumulates(t *testing.T) {
	r := newExec(t)
	r.classify("debug one\n", "", true)
	r.classify("debug two\n", "", true)
	assert.Equal(t, "debug one\ndebug two", r.PendingOutput())
}

func TestClassify_ClearDirectiveDiscardsPending(t *testing.T) {
	r := newExec(t)
	r.classify("debug one\n", "", true)
	res := r.classify("clear-output\n", "", true)
	assert.Equal(t, domain.OutcomePassed, res.Outcome)
	assert.Empty(t, r.PendingOutput())
}

func TestClassify_StderrBecomesErrors(t *testing.T) {
	r := newExec(t)
	res := r.classify("", "suite.test:12: undefined variable\nunrelated noise\n", false)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "undefined variable", res.Errors[0].Message)
	assert.Equal(t, "suite.test:12", res.Errors[0].Location)
	assert.Equal(t, "unrelated noise", res.Errors[1].Message)
	assert.Empty(t, res.Errors[1].Location)
}

func TestClassify_SilentFailureGetsGenericError(t *testing.T) {
	r := newExec(t)
	res := r.classify("", "", false)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "runtime command failed", res.Errors[0].Message)
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		line string
		msg  string
		loc  string
	}{
		{"suite.test:12: undefined variable", "undefined variable", "suite.test:12"},
		{"dir/suite.test:3: boom", "boom", "dir/suite.test:3"},
		{"plain message with no location", "plain message with no location", ""},
		{"note: colon but no line number", "note: colon but no line number", ""},
		{"file:notanumber: msg", "file:notanumber: msg", ""},
		{"  suite.test:1: trimmed  ", "trimmed", "suite.test:1"},
	}
	for _, tt := range tests {
		msg, loc := splitLocation(tt.line)
		assert.Equal(t, tt.msg, msg, tt.line)
		assert.Equal(t, tt.loc, loc, tt.line)
	}
}

func TestResetIsolationClearsPending(t *testing.T) {
	r := newExec(t)
	r.classify("leftover\n", "", true)
	require.NoError(t, r.ResetIsolation())
	assert.Empty(t, r.PendingOutput())
}

func TestLogSources(t *testing.T) {
	dir := t.TempDir()
	serverLog := filepath.Join(dir, "server.log")
	require.NoError(t, os.WriteFile(serverLog, []byte("listening"), 0644))
	emptyLog := filepath.Join(dir, "empty.log")
	require.NoError(t, os.WriteFile(emptyLog, nil, 0644))

	cfg := config.New()
	cfg.RuntimeLogs = []string{serverLog, emptyLog, filepath.Join(dir, "missing.log")}
	r := NewExecRuntime(cfg, discovery.NewScanner(), zerolog.Nop())

	sources := r.LogSources()
	assert.Equal(t, map[string]string{"server": "listening"}, sources)
}

func TestLoadRequiresRuntimeCommand(t *testing.T) {
	r := newExec(t)
	r.cfg.RuntimeCmd = ""
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	err := r.Load(ctx, "suite.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runtime command")
}
