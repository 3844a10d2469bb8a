package domain

// Outcome is the result variant returned from a runtime invocation.
type Outcome int

const (
	// OutcomePassed means the procedure completed without raising.
	OutcomePassed Outcome = iota
	// OutcomeFailed means the procedure raised one or more errors.
	OutcomeFailed
	// OutcomeSkipped means the procedure signalled it should be skipped.
	OutcomeSkipped
)

// InvokeError is a single error raised by an invoked procedure.
type InvokeError struct {
	Message  string
	Location string // source location, e.g. "script.test:12", may be empty
}

// InvokeResult describes what happened when the runtime invoked a
// procedure. The skip signal is resolved at the runtime boundary, so the
// engine never inspects error message text to classify an outcome.
type InvokeResult struct {
	Outcome    Outcome
	Errors     []InvokeError // populated when Outcome is OutcomeFailed
	SkipReason string        // populated when Outcome is OutcomeSkipped
}
