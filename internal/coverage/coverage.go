// Package coverage runs the optional profiling side-channel around a test
// run. The engine only starts and stops it; the profiler command itself is
// external and configured via coverage_cmd.
package coverage

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"stp/internal/config"
)

// Profiler manages the external profiler process for one run.
type Profiler struct {
	cfg *config.Config
	log zerolog.Logger
	cmd *exec.Cmd
}

// NewProfiler creates a Profiler using the configured command.
func NewProfiler(cfg *config.Config, log zerolog.Logger) *Profiler {
	return &Profiler{
		cfg: cfg,
		log: log.With().Str("component", "coverage").Logger(),
	}
}

// Start launches the profiler. A start failure is reported to the caller
// as a run message, never as a test failure.
func (p *Profiler) Start() error {
	if strings.TrimSpace(p.cfg.CoverageCmd) == "" {
		return fmt.Errorf("coverage requested but no coverage_cmd configured")
	}
	argv := strings.Fields(p.cfg.CoverageCmd)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = p.cfg.ProjectPath
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start profiler: %w", err)
	}
	p.cmd = cmd
	p.log.Debug().Str("cmd", p.cfg.CoverageCmd).Msg("profiler started")
	return nil
}

// Stop interrupts the profiler so it can persist its data, and waits for
// it to exit.
func (p *Profiler) Stop() error {
	if p.cmd == nil {
		return nil
	}
	defer func() { p.cmd = nil }()

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = p.cmd.Process.Kill()
		return fmt.Errorf("interrupt profiler: %w", err)
	}
	if err := p.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// The profiler exiting non-zero after an interrupt is expected
			// with some tools, the data is already persisted.
			return nil
		}
		return fmt.Errorf("wait for profiler: %w", err)
	}
	return nil
}
