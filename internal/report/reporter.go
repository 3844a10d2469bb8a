package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"stp/internal/config"
	"stp/internal/domain"
)

// Reporter writes the durable run artifacts: the cumulative failure log
// (test.log), the cumulative message log (messages), the success marker,
// and per-source diagnostic dumps. The cumulative logs are append-only and
// never truncated; each write opens, appends and closes the file under a
// sidecar flock so concurrent readers see whole-line appends.
type Reporter struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewReporter creates a Reporter writing into the configured output dir.
func NewReporter(cfg *config.Config, log zerolog.Logger) *Reporter {
	return &Reporter{
		cfg: cfg,
		log: log.With().Str("component", "reporter").Logger(),
	}
}

// Finish flushes the run record: marker on a clean run, failure block on a
// failed one, and the summary to the message log in every case.
func (r *Reporter) Finish(rec *domain.RunRecord) error {
	if err := os.MkdirAll(r.cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if rec.Failed == 0 {
		if err := r.writeMarker(rec.Script); err != nil {
			return err
		}
	} else {
		if err := r.appendLocked(r.cfg.FailureLogPath(), failureBlock(rec)); err != nil {
			return err
		}
	}

	return r.appendLocked(r.cfg.MessageLogPath(), messageBlock(rec))
}

// DumpLog writes one captured diagnostic log for a failed test.
func (r *Reporter) DumpLog(testID, logName, content string) error {
	path := r.cfg.DumpPath(testID, logName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write diagnostic dump %s: %w", path, err)
	}
	return nil
}

// writeMarker creates the empty artifact whose existence signals success
// to external build tooling.
func (r *Reporter) writeMarker(script string) error {
	path := r.cfg.MarkerPath(script)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("write marker %s: %w", path, err)
	}
	r.log.Debug().Str("marker", path).Msg("run succeeded")
	return nil
}

// appendLocked appends text to an append-only log under a sidecar file
// lock. The handle is not kept open between writes.
func (r *Reporter) appendLocked(path, text string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}

// failureBlock formats the run's failures for the cumulative failure log:
// a run identity header followed by each failure's id and messages.
func failureBlock(rec *domain.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From %s (run %s) %s:\n", rec.Script, rec.RunID, rec.StartedAt.Format(time.RFC1123))
	for _, f := range rec.Failures {
		fmt.Fprintf(&b, "Found errors in %s:\n", f.TestID)
		for _, msg := range f.Messages {
			b.WriteString(msg)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// messageBlock formats the run summary for the cumulative message log:
// run-time messages (flaky history), the executed line, failure detail
// when any, and skip entries.
func messageBlock(rec *domain.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s (run %s) ---\n", rec.Script, rec.RunID)
	for _, msg := range rec.Messages {
		b.WriteString(msg)
		b.WriteByte('\n')
	}

	if rec.Executed == 0 {
		b.WriteString("NO tests executed\n")
	} else {
		fmt.Fprintf(&b, "Executed %d tests\n", rec.Executed)
	}

	if rec.Failed > 0 {
		fmt.Fprintf(&b, "%d FAILED:\n", rec.Failed)
		for _, f := range rec.Failures {
			fmt.Fprintf(&b, "  %s\n", f.TestID)
			for _, msg := range f.Messages {
				fmt.Fprintf(&b, "    %s\n", msg)
			}
		}
	}

	for _, s := range rec.Skips {
		if s.Reason != "" {
			fmt.Fprintf(&b, "SKIPPED %s: %s\n", s.TestID, s.Reason)
		} else {
			fmt.Fprintf(&b, "SKIPPED %s\n", s.TestID)
		}
	}
	b.WriteByte('\n')
	return b.String()
}
