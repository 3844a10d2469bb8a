package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stp/internal/exitcodes"
)

// TimeoutGuard arms a deadline for exactly one in-flight test. On firing
// it cancels the body's context first; the process is aborted only when
// the runtime cannot honor cancellation, or when the body still has not
// returned after the grace period.
type TimeoutGuard struct {
	disarm chan struct{}
	once   sync.Once
	fired  atomic.Bool
}

// ArmGuard starts a guard goroutine for one test body invocation.
// cancel must cancel the body's context; abort terminates the process
// (injectable so tests can observe the forced-exit path).
func ArmGuard(timeout, grace time.Duration, cancel context.CancelFunc, canCancel bool, abort func(code int)) *TimeoutGuard {
	g := &TimeoutGuard{disarm: make(chan struct{})}

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-g.disarm:
			return
		case <-timer.C:
		}

		g.fired.Store(true)
		cancel()
		if !canCancel {
			abort(exitcodes.RuntimeErr)
			return
		}

		graceTimer := time.NewTimer(grace)
		defer graceTimer.Stop()
		select {
		case <-g.disarm:
			// body returned after cooperative cancellation
		case <-graceTimer.C:
			abort(exitcodes.RuntimeErr)
		}
	}()

	return g
}

// Disarm stops the guard. Safe to call more than once.
func (g *TimeoutGuard) Disarm() {
	g.once.Do(func() { close(g.disarm) })
}

// Fired reports whether the deadline elapsed before Disarm.
func (g *TimeoutGuard) Fired() bool {
	return g.fired.Load()
}
