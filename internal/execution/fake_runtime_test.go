package execution

import (
	"context"

	"stp/internal/domain"
	"stp/internal/runtime"
)

// fakeRuntime is a scriptable Runtime for engine tests.
type fakeRuntime struct {
	procs   map[string]bool
	results map[string]domain.InvokeResult
	errs    map[string]error
	blockOn map[string]bool // procs that wait for ctx cancellation

	loadErr    error
	pending    string
	logs       map[string]string
	closeSeq   []int
	cantCancel bool

	onInvoke func(proc string) // optional side effect hook

	invoked    []string
	loadCalls  int
	resets     int
	wipes      int
	closeCalls int
}

func newFakeRuntime(procs ...string) *fakeRuntime {
	set := make(map[string]bool, len(procs))
	for _, p := range procs {
		set[p] = true
	}
	return &fakeRuntime{
		procs:   set,
		results: make(map[string]domain.InvokeResult),
		errs:    make(map[string]error),
		blockOn: make(map[string]bool),
	}
}

func (f *fakeRuntime) Load(ctx context.Context, script string) error {
	f.loadCalls++
	return f.loadErr
}

func (f *fakeRuntime) Invoke(ctx context.Context, proc string) (domain.InvokeResult, error) {
	f.invoked = append(f.invoked, proc)
	if f.onInvoke != nil {
		f.onInvoke(proc)
	}
	if f.blockOn[proc] {
		<-ctx.Done()
		return domain.InvokeResult{
			Outcome: domain.OutcomeFailed,
			Errors:  []domain.InvokeError{{Message: "interrupted: " + ctx.Err().Error()}},
		}, nil
	}
	if err := f.errs[proc]; err != nil {
		return domain.InvokeResult{}, err
	}
	if res, ok := f.results[proc]; ok {
		return res, nil
	}
	return domain.InvokeResult{Outcome: domain.OutcomePassed}, nil
}

func (f *fakeRuntime) HasProc(name string) bool { return f.procs[name] }

func (f *fakeRuntime) ResetIsolation() error {
	f.resets++
	return nil
}

func (f *fakeRuntime) CloseExtraWindows() (int, error) {
	f.closeCalls++
	if f.closeCalls <= len(f.closeSeq) {
		return f.closeSeq[f.closeCalls-1], nil
	}
	return 0, nil
}

func (f *fakeRuntime) WipeBuffers() error {
	f.wipes++
	return nil
}

func (f *fakeRuntime) PendingOutput() string { return f.pending }

func (f *fakeRuntime) ClearOutput() { f.pending = "" }

func (f *fakeRuntime) LogSources() map[string]string { return f.logs }

func (f *fakeRuntime) CanCancel() bool { return !f.cantCancel }

// failOnce makes a proc fail the first n invocations and pass afterwards.
type flakyRuntime struct {
	*fakeRuntime
	failFirst map[string]int
	calls     map[string]int
}

func newFlakyRuntime(procs ...string) *flakyRuntime {
	return &flakyRuntime{
		fakeRuntime: newFakeRuntime(procs...),
		failFirst:   make(map[string]int),
		calls:       make(map[string]int),
	}
}

func (f *flakyRuntime) Invoke(ctx context.Context, proc string) (domain.InvokeResult, error) {
	if n, ok := f.failFirst[proc]; ok {
		f.calls[proc]++
		f.invoked = append(f.invoked, proc)
		if f.calls[proc] <= n {
			return domain.InvokeResult{
				Outcome: domain.OutcomeFailed,
				Errors:  []domain.InvokeError{{Message: "flaky assertion failed", Location: "script.test:7"}},
			}, nil
		}
		return domain.InvokeResult{Outcome: domain.OutcomePassed}, nil
	}
	return f.fakeRuntime.Invoke(ctx, proc)
}

var _ runtime.Runtime = (*fakeRuntime)(nil)
var _ runtime.Runtime = (*flakyRuntime)(nil)
