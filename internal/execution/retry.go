package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stp/internal/config"
	"stp/internal/domain"
)

// Retry wraps a Runner and re-invokes failed tests up to the configured
// bound, unless retries are disabled. Messages from every failed attempt
// are preserved in the run record so flaky-failure history stays visible
// even when the test eventually passes.
type Retry struct {
	cfg    *config.Config
	runner Runner
	log    zerolog.Logger
	sleep  func(time.Duration)
}

// NewRetry creates a retry controller around the given runner.
func NewRetry(cfg *config.Config, runner Runner, log zerolog.Logger) *Retry {
	return &Retry{
		cfg:    cfg,
		runner: runner,
		log:    log.With().Str("component", "retry").Logger(),
		sleep:  time.Sleep,
	}
}

// Run executes the test, retrying on failure. The TestCase's final status
// is whatever the last attempt produced.
func (r *Retry) Run(ctx context.Context, tc *domain.TestCase, rec *domain.RunRecord) error {
	if err := r.runner.RunOnce(ctx, tc); err != nil {
		return err
	}
	if tc.Status != domain.StatusFailed || r.disabled() {
		return nil
	}

	for extra := 1; extra <= r.cfg.MaxRetries; extra++ {
		rec.AddMessage(fmt.Sprintf("%s failed on attempt %d:", tc.ID(), tc.Attempts))
		for _, msg := range tc.Errors {
			rec.AddMessage("  " + msg)
		}
		r.log.Debug().Str("test", tc.ID()).Int("extra", extra).Msg("retrying flaky test")

		r.sleep(r.cfg.FlakyDelay)
		tc.ClearErrors()
		tc.SkipReason = ""

		if err := r.runner.RunOnce(ctx, tc); err != nil {
			return err
		}
		if tc.Status != domain.StatusFailed {
			break
		}
	}
	return nil
}

// disabled reports whether retries are off, either via the TEST_NO_RETRY
// toggle or a configured retry count of zero.
func (r *Retry) disabled() bool {
	return r.cfg.MaxRetries == 0 || r.cfg.RetryDisabled()
}
