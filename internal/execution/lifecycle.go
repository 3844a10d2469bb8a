package execution

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"stp/internal/config"
	"stp/internal/domain"
	"stp/internal/runtime"
)

// Global hook procedure names; per-test hooks append "_<Test_name>".
const (
	setUpHook    = "SetUp"
	tearDownHook = "TearDown"
)

// Runner executes one full test cycle. The returned error is reserved for
// host-level failures that must finalize the whole run; everything else is
// recorded on the TestCase.
type Runner interface {
	RunOnce(ctx context.Context, tc *domain.TestCase) error
}

// Lifecycle runs a single test through its full cycle: isolation reset,
// setup hooks, the body under a timeout guard, teardown hooks, isolation
// cleanup, and cwd restore. Every step is fault-isolated: a step error is
// recorded and later steps still run.
type Lifecycle struct {
	cfg   *config.Config
	rt    runtime.Runtime
	log   zerolog.Logger
	abort func(code int) // process abort on unrecoverable timeout
}

// NewLifecycle creates a Lifecycle runner over the given runtime.
func NewLifecycle(cfg *config.Config, rt runtime.Runtime, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		cfg:   cfg,
		rt:    rt,
		log:   log.With().Str("component", "lifecycle").Logger(),
		abort: os.Exit,
	}
}

// RunOnce executes one attempt of the test and settles its status.
func (l *Lifecycle) RunOnce(ctx context.Context, tc *domain.TestCase) error {
	tc.Status = domain.StatusRunning
	tc.Attempts++
	l.log.Debug().Str("test", tc.ID()).Int("attempt", tc.Attempts).Msg("starting")

	cwd, cwdErr := os.Getwd()

	if err := l.rt.ResetIsolation(); err != nil {
		tc.AddError("isolation reset failed: "+err.Error(), "")
	}

	if err := l.runHook(ctx, tc, setUpHook+"_"+tc.Name); err != nil {
		return l.settle(tc, false, cwd, cwdErr, err)
	}
	if err := l.runHook(ctx, tc, setUpHook); err != nil {
		return l.settle(tc, false, cwd, cwdErr, err)
	}

	skipped, hostErr := l.runBody(ctx, tc)
	if hostErr != nil {
		return l.settle(tc, skipped, cwd, cwdErr, hostErr)
	}

	if err := l.runHook(ctx, tc, tearDownHook); err != nil {
		return l.settle(tc, skipped, cwd, cwdErr, err)
	}
	if err := l.runHook(ctx, tc, tearDownHook+"_"+tc.Name); err != nil {
		return l.settle(tc, skipped, cwd, cwdErr, err)
	}

	l.cleanupIsolation(tc)
	return l.settle(tc, skipped, cwd, cwdErr, nil)
}

// runBody invokes the test procedure under the timeout guard and maps its
// tagged result onto the TestCase. Returns whether the body skipped.
func (l *Lifecycle) runBody(ctx context.Context, tc *domain.TestCase) (skipped bool, hostErr error) {
	bodyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	guard := ArmGuard(l.cfg.Timeout, l.cfg.CancelGrace, cancel, l.rt.CanCancel(), l.abort)
	res, err := l.rt.Invoke(bodyCtx, tc.Name)
	guard.Disarm()

	if err != nil {
		if errors.Is(err, runtime.ErrRuntimeExited) {
			tc.AddError("caused the runtime to exit: "+err.Error(), "")
			return false, err
		}
		tc.AddError(err.Error(), "")
		return false, nil
	}

	if guard.Fired() {
		tc.AddError(fmt.Sprintf("timed out after %s", l.cfg.Timeout), "")
		return false, nil
	}

	switch res.Outcome {
	case domain.OutcomeSkipped:
		tc.ClearErrors()
		tc.SkipReason = res.SkipReason
		skipped = true
	case domain.OutcomeFailed:
		for _, e := range res.Errors {
			tc.AddError(e.Message, e.Location)
		}
	case domain.OutcomePassed:
		// A clean run must leave no diagnostic output behind unless the
		// test cleared it explicitly.
		if out := l.rt.PendingOutput(); out != "" {
			tc.AddError("diagnostic output remaining: "+out, "")
		}
	}
	l.rt.ClearOutput()
	return skipped, nil
}

// runHook invokes an optional hook procedure under the fault-isolation
// policy. Hook failures are recorded on the TestCase; only a runtime crash
// comes back as an error.
func (l *Lifecycle) runHook(ctx context.Context, tc *domain.TestCase, name string) error {
	if !l.rt.HasProc(name) {
		return nil
	}
	res, err := l.rt.Invoke(ctx, name)
	if err != nil {
		if errors.Is(err, runtime.ErrRuntimeExited) {
			tc.AddError(name+" caused the runtime to exit: "+err.Error(), "")
			return err
		}
		tc.AddError(name+": "+err.Error(), "")
		return nil
	}
	if res.Outcome == domain.OutcomeFailed {
		for _, e := range res.Errors {
			tc.AddError(name+": "+e.Message, e.Location)
		}
	}
	return nil
}

// cleanupIsolation closes leftover windows until no progress is made,
// bounded at CloseRounds, then wipes transient buffers as the forced
// terminal step.
func (l *Lifecycle) cleanupIsolation(tc *domain.TestCase) {
	for i := 0; i < l.cfg.CloseRounds; i++ {
		n, err := l.rt.CloseExtraWindows()
		if err != nil {
			tc.AddError("closing windows: "+err.Error(), "")
			break
		}
		if n == 0 {
			break
		}
	}
	if err := l.rt.WipeBuffers(); err != nil {
		tc.AddError("wiping buffers: "+err.Error(), "")
	}
}

// settle restores the working directory and records the terminal status.
// Precedence: skipped > failed > passed.
func (l *Lifecycle) settle(tc *domain.TestCase, skipped bool, cwd string, cwdErr error, hostErr error) error {
	if cwdErr == nil {
		if err := os.Chdir(cwd); err != nil {
			tc.AddError("restoring working directory: "+err.Error(), "")
		}
	}

	switch {
	case skipped:
		tc.Status = domain.StatusSkipped
	case len(tc.Errors) > 0:
		tc.Status = domain.StatusFailed
	default:
		tc.Status = domain.StatusPassed
	}
	l.log.Debug().Str("test", tc.ID()).Str("status", string(tc.Status)).Msg("finished")
	return hostErr
}
