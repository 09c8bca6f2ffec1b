package primitives

import (
	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
)

// ResumablePromiseAll implements atp.all: run each zero-argument thunk in
// turn and collect their results. A pause from any thunk propagates
// immediately and aborts the whole call, matching the target language's
// Promise.all "reject on first rejection" semantics read onto a pause
// instead of a rejection. The Code Transformer always classifies
// resumable_gather call sites as sequential: each pausing thunk raises its
// own pause, and none are fused into a batch.
func ResumablePromiseAll(thread *starlark.Thread, guard *IterationGuard, thunks []starlark.Callable) (*starlark.List, error) {
	out := make([]starlark.Value, len(thunks))
	for i, thunk := range thunks {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := call0(thread, thunk)
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return starlark.NewList(out), nil
}

// SettledResult is one entry of atp.allSettled's result list.
type SettledResult struct {
	Status string // "fulfilled" | "rejected"
	Value  starlark.Value
	Reason string
}

// ResumablePromiseAllSettled implements atp.allSettled: like
// ResumablePromiseAll, but a non-pause error from a thunk is captured as a
// rejected entry instead of aborting the call. A pause still propagates —
// suspension is not a settlement, it has no outcome yet.
func ResumablePromiseAllSettled(thread *starlark.Thread, guard *IterationGuard, thunks []starlark.Callable) ([]SettledResult, error) {
	out := make([]SettledResult, len(thunks))
	for i, thunk := range thunks {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := call0(thread, thunk)
		if err != nil {
			if _, isPause := engine.IsPause(err); isPause {
				return nil, err
			}
			out[i] = SettledResult{Status: "rejected", Reason: err.Error()}
			continue
		}
		out[i] = SettledResult{Status: "fulfilled", Value: result}
	}
	return out, nil
}
