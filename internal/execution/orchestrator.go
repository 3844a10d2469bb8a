package execution

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stp/internal/config"
	"stp/internal/coverage"
	"stp/internal/discovery"
	"stp/internal/domain"
	"stp/internal/exitcodes"
	"stp/internal/report"
	"stp/internal/runtime"
	"stp/internal/ui"
)

// HistorySink records finished runs in external storage.
type HistorySink interface {
	Record(rec *domain.RunRecord, duration time.Duration) error
}

// Orchestrator drives a full run: load, discovery, sorted iteration
// through the retry controller, aggregation into a RunRecord, and
// finalization through the reporter.
type Orchestrator struct {
	cfg      *config.Config
	rt       runtime.Runtime
	scanner  *discovery.Scanner
	filter   *discovery.Filter
	retry    *Retry
	reporter *report.Reporter
	store    *report.RunStore
	log      zerolog.Logger

	showProgress bool
	profiler     *coverage.Profiler
	history      HistorySink
}

// NewOrchestrator creates an Orchestrator with its core dependencies.
func NewOrchestrator(
	cfg *config.Config,
	rt runtime.Runtime,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	retry *Retry,
	reporter *report.Reporter,
	store *report.RunStore,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		rt:       rt,
		scanner:  scanner,
		filter:   filter,
		retry:    retry,
		reporter: reporter,
		store:    store,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
}

// ShowProgress enables the console progress bar.
func (o *Orchestrator) ShowProgress() { o.showProgress = true }

// SetProfiler attaches the optional coverage side-channel.
func (o *Orchestrator) SetProfiler(p *coverage.Profiler) { o.profiler = p }

// SetHistory attaches the optional run-history sink.
func (o *Orchestrator) SetHistory(h HistorySink) { o.history = h }

// Run executes every discovered test in the script and finalizes the run.
// It returns the run record and the process exit code.
func (o *Orchestrator) Run(ctx context.Context, script, pattern string) (*domain.RunRecord, int) {
	rec := domain.NewRunRecord(script)
	start := time.Now()

	profiling := false
	if o.profiler != nil && o.cfg.CoverageEnabled() {
		if err := o.profiler.Start(); err != nil {
			rec.AddMessage("coverage: " + err.Error())
		} else {
			profiling = true
		}
	}

	// Top-level script evaluation happens exactly once. A load failure is
	// one synthetic failure; the run still finalizes normally.
	if err := o.rt.Load(ctx, script); err != nil {
		o.log.Debug().Err(err).Msg("script load failed")
		rec.AddSyntheticFailure(script+"::(load)", "error evaluating script: "+err.Error())
	}

	names, err := o.scanner.Scan(script)
	if err != nil {
		// Unreadable script: already surfaced by Load, nothing to run.
		names = nil
	}
	names = o.filter.Apply(names, pattern)
	sort.Strings(names)
	o.log.Debug().Int("tests", len(names)).Str("pattern", pattern).Msg("discovered")

	var progress *ui.ProgressBar
	if o.showProgress && len(names) > 0 {
		progress = ui.NewProgressBar(len(names))
	}

	passed, failed := 0, 0
	for _, name := range names {
		tc := domain.NewTestCase(script, name)
		runErr := o.retry.Run(ctx, tc, rec)
		rec.RecordResult(tc)

		if tc.Status == domain.StatusFailed {
			failed++
			o.dumpLogs(tc)
		} else {
			passed++
		}
		if progress != nil {
			progress.Update(rec.Executed, passed, failed)
		}

		if runErr != nil {
			// The runtime died under this test; no further tests.
			rec.AddMessage("run aborted: " + runErr.Error())
			break
		}
	}
	if progress != nil {
		progress.Finish()
	}

	return rec, o.finalize(rec, time.Since(start), profiling)
}

// finalize flushes the run record to the durable report artifacts and the
// optional sinks, and computes the exit code.
func (o *Orchestrator) finalize(rec *domain.RunRecord, duration time.Duration, profiling bool) int {
	if err := o.reporter.Finish(rec); err != nil {
		o.log.Error().Err(err).Msg("writing report artifacts")
	}
	if o.store != nil {
		if err := o.store.Save(rec, duration); err != nil {
			o.log.Error().Err(err).Msg("saving run results")
		}
	}
	if o.history != nil {
		if err := o.history.Record(rec, duration); err != nil {
			o.log.Error().Err(err).Msg("recording run history")
		}
	}
	if profiling {
		if err := o.profiler.Stop(); err != nil {
			o.log.Error().Err(err).Msg("stopping profiler")
		}
	}

	if rec.Failed > 0 {
		return exitcodes.TestFailure
	}
	return exitcodes.Success
}

// dumpLogs captures the runtime's diagnostic log sources for a failed test.
func (o *Orchestrator) dumpLogs(tc *domain.TestCase) {
	for name, content := range o.rt.LogSources() {
		if err := o.reporter.DumpLog(tc.ID(), name, content); err != nil {
			o.log.Error().Err(err).Str("log", name).Msg("writing diagnostic dump")
		}
	}
}
