// Package runtime abstracts the host environment that evaluates a test
// script and executes its procedures. The engine never manipulates
// interactive host state directly, only through this interface.
package runtime

import (
	"context"
	"errors"

	"stp/internal/domain"
)

// ErrRuntimeExited reports that the host runtime itself terminated while a
// procedure was in flight. The engine treats this as fatal to the run.
var ErrRuntimeExited = errors.New("test runtime exited")

// Runtime is the capability surface the engine drives a test run through.
type Runtime interface {
	// Load evaluates the script's top-level code once, before discovery
	// results are executed. A load error does not abort the run.
	Load(ctx context.Context, script string) error

	// Invoke runs one procedure (test body or hook) and reports the
	// outcome as a tagged variant. The returned error is reserved for
	// host-level failures such as the runtime process dying.
	Invoke(ctx context.Context, proc string) (domain.InvokeResult, error)

	// HasProc reports whether the loaded script defines the procedure.
	HasProc(name string) bool

	// ResetIsolation returns the host to its known baseline before a test.
	ResetIsolation() error

	// CloseExtraWindows closes one round of leftover viewports and
	// returns how many it closed, so the caller can loop until no
	// further progress is made.
	CloseExtraWindows() (int, error)

	// WipeBuffers discards transient buffers as the terminal cleanup step.
	WipeBuffers() error

	// PendingOutput returns diagnostic output the test body left behind.
	PendingOutput() string

	// ClearOutput discards pending diagnostic output.
	ClearOutput()

	// LogSources returns named diagnostic log contents to be dumped when
	// a test fails.
	LogSources() map[string]string

	// CanCancel reports whether Invoke honors context cancellation. When
	// false, a fired timeout falls back to aborting the process.
	CanCancel() bool
}
