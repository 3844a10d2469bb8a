package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/domain"
)

const (
	skipMarker     = "skip:"
	clearDirective = "clear-output"
)

// ExecRuntime runs each procedure in a fresh interpreter subprocess:
// `<runtime-cmd> <script> <proc>`. Loading evaluates the script's
// top-level code with `<runtime-cmd> <script>`.
//
// Invocation protocol, line-oriented:
//   - a stdout line with a case-insensitive "skip:" prefix marks the
//     procedure skipped, the remainder of the line is the reason
//   - a stdout line reading "clear-output" discards pending output
//   - any other stdout line accumulates as pending diagnostic output
//   - on a non-zero exit, each non-empty stderr line becomes one error;
//     a "path:line: message" shape is split into location and message
type ExecRuntime struct {
	cfg     *config.Config
	scanner *discovery.Scanner
	log     zerolog.Logger

	script  string
	argv    []string
	procs   map[string]bool
	pending []string
}

// NewExecRuntime creates an ExecRuntime using the configured runtime command.
func NewExecRuntime(cfg *config.Config, scanner *discovery.Scanner, log zerolog.Logger) *ExecRuntime {
	return &ExecRuntime{
		cfg:     cfg,
		scanner: scanner,
		log:     log.With().Str("component", "runtime").Logger(),
	}
}

// Load evaluates the script's top-level code and records its procedures.
func (r *ExecRuntime) Load(ctx context.Context, script string) error {
	if strings.TrimSpace(r.cfg.RuntimeCmd) == "" {
		return fmt.Errorf("no runtime command configured")
	}
	r.argv = strings.Fields(r.cfg.RuntimeCmd)
	r.script = script

	names, err := r.scanner.Procs(script)
	if err != nil {
		return err
	}
	r.procs = make(map[string]bool, len(names))
	for _, name := range names {
		r.procs[name] = true
	}

	cmd := r.command(ctx)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return fmt.Errorf("%w: %v", ErrRuntimeExited, err)
		}
		return fmt.Errorf("evaluating %s: %s", script, firstLine(string(out)))
	}
	return nil
}

// Invoke runs one procedure in a subprocess and classifies the outcome.
func (r *ExecRuntime) Invoke(ctx context.Context, proc string) (domain.InvokeResult, error) {
	cmd := r.command(ctx, proc)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("proc", proc).Msg("invoking")
	err := cmd.Run()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return domain.InvokeResult{}, fmt.Errorf("%w: %v", ErrRuntimeExited, err)
		}
	}
	if ctx.Err() != nil {
		return domain.InvokeResult{
			Outcome: domain.OutcomeFailed,
			Errors:  []domain.InvokeError{{Message: "interrupted: " + ctx.Err().Error()}},
		}, nil
	}

	return r.classify(stdout.String(), stderr.String(), err == nil), nil
}

// classify maps subprocess output and exit status to a tagged result.
func (r *ExecRuntime) classify(stdout, stderr string, clean bool) domain.InvokeResult {
	skip := ""
	skipped := false
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(strings.ToLower(trimmed), skipMarker):
			if !skipped {
				skipped = true
				skip = strings.TrimSpace(trimmed[len(skipMarker):])
			}
		case trimmed == clearDirective:
			r.pending = nil
		default:
			r.pending = append(r.pending, line)
		}
	}

	if skipped {
		return domain.InvokeResult{Outcome: domain.OutcomeSkipped, SkipReason: skip}
	}
	if clean {
		return domain.InvokeResult{Outcome: domain.OutcomePassed}
	}

	var errs []domain.InvokeError
	for _, line := range strings.Split(stderr, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		msg, loc := splitLocation(line)
		errs = append(errs, domain.InvokeError{Message: msg, Location: loc})
	}
	if len(errs) == 0 {
		errs = append(errs, domain.InvokeError{Message: "runtime command failed"})
	}
	return domain.InvokeResult{Outcome: domain.OutcomeFailed, Errors: errs}
}

// HasProc reports whether the loaded script defines the procedure.
func (r *ExecRuntime) HasProc(name string) bool {
	return r.procs[name]
}

// ResetIsolation returns the runtime to its baseline. Each invocation is a
// fresh subprocess, so only harness-side state needs resetting.
func (r *ExecRuntime) ResetIsolation() error {
	r.pending = nil
	return nil
}

// CloseExtraWindows is a no-op for the subprocess runtime: windows do not
// outlive the invoking process.
func (r *ExecRuntime) CloseExtraWindows() (int, error) {
	return 0, nil
}

// WipeBuffers is a no-op for the subprocess runtime.
func (r *ExecRuntime) WipeBuffers() error {
	return nil
}

// PendingOutput returns diagnostic output left behind by the last body.
func (r *ExecRuntime) PendingOutput() string {
	return strings.Join(r.pending, "\n")
}

// ClearOutput discards pending diagnostic output.
func (r *ExecRuntime) ClearOutput() {
	r.pending = nil
}

// LogSources reads the configured runtime log files, keyed by base name.
// Missing or empty files are omitted.
func (r *ExecRuntime) LogSources() map[string]string {
	sources := make(map[string]string)
	for _, path := range r.cfg.RuntimeLogs {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			continue
		}
		name := filepath.Base(path)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		sources[name] = string(data)
	}
	return sources
}

// CanCancel is true: killing the subprocess honors context cancellation.
func (r *ExecRuntime) CanCancel() bool {
	return true
}

func (r *ExecRuntime) command(ctx context.Context, extra ...string) *exec.Cmd {
	args := append([]string{}, r.argv[1:]...)
	args = append(args, r.script)
	args = append(args, extra...)
	cmd := exec.CommandContext(ctx, r.argv[0], args...)
	cmd.Env = os.Environ()
	cmd.Dir = r.cfg.ProjectPath
	return cmd
}

// splitLocation splits a "path:line: message" error line into message and
// location. Lines without that shape come back with an empty location.
func splitLocation(line string) (msg, loc string) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, ": ", 2)
	if len(parts) != 2 {
		return line, ""
	}
	head := parts[0]
	idx := strings.LastIndex(head, ":")
	if idx <= 0 {
		return line, ""
	}
	if _, err := strconv.Atoi(head[idx+1:]); err != nil {
		return line, ""
	}
	return strings.TrimSpace(parts[1]), head
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
