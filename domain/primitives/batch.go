package primitives

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// BatchParallel implements the Batch Parallel Primitive (spec §4.G) for a
// caller that already holds one Runtime API payload per element. The
// Sandbox Executor's batch-eligible `map` dispatch does not call it; it uses
// ResumableMapBatch below. Instead of N sequential pauses it reserves
// one consecutive sequence-number block (spec §3 "Batch Call" invariant) and
// raises a single fused pause carrying every call the client still needs to
// resolve — elements already answered by a prior resume are filled in from
// the replay cache without widening the pause.
func BatchParallel(sc *engine.SequenceCounter, kind engine.PauseKind, operation string, payloads []engine.PausePayload) ([]any, error) {
	n := len(payloads)
	first := sc.ReserveBlock(n)

	results := make([]any, n)
	var pending []engine.BatchCall
	for i, payload := range payloads {
		seq := first + int64(i)
		if rec, hit := sc.GetCachedResult(seq); hit {
			results[i] = rec.Value
			continue
		}
		pending = append(pending, engine.BatchCall{Kind: kind, Payload: payload, Sequence: seq})
	}

	if len(pending) == 0 {
		return results, nil
	}
	if sc.CallbackCapExceeded(pending[len(pending)-1].Sequence) {
		return nil, apperror.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("execution exceeded its callback limit at sequence %d", pending[len(pending)-1].Sequence))
	}

	return nil, engine.NewPause(engine.PauseKindBatch, operation, first, engine.PausePayload{
		ParallelID: fmt.Sprintf("%s:%d", operation, first),
		Calls:      pending,
	})
}

// ResumableMapBatch is what the Code Transformer rewrites a `map` call site
// into once its batch analyzer (domain/transform) finds the callback makes
// exactly one Runtime API call per element. Unlike BatchParallel it doesn't
// need the payloads up front: it runs each element's callback once, and a
// callback that hits its one Runtime API call's replay cache just returns
// normally; one that misses raises an ordinary per-element pause that this
// builtin intercepts (instead of letting it propagate) and folds into a
// single fused Batch Call. Because every element makes exactly one Resolve()
// call in element order, the intercepted sequence numbers are already the
// consecutive block the Batch Call invariant requires — no separate
// reservation step is needed.
func ResumableMapBatch(thread *starlark.Thread, guard *IterationGuard, values []starlark.Value, fn starlark.Callable, operation string) (*starlark.List, error) {
	out := make([]starlark.Value, len(values))
	var pending []engine.BatchCall
	var firstSeq int64 = -1

	for i, v := range values {
		if err := guard.Tick(); err != nil {
			return nil, err
		}
		result, err := callElement(thread, fn, v, i)
		if err == nil {
			out[i] = result
			continue
		}
		pause, ok := engine.IsPause(err)
		if !ok {
			return nil, err
		}
		if firstSeq < 0 {
			firstSeq = pause.Sequence
		}
		pending = append(pending, engine.BatchCall{Kind: pause.Kind, Payload: pause.Payload, Sequence: pause.Sequence})
	}

	if len(pending) == 0 {
		return starlark.NewList(out), nil
	}

	return nil, engine.NewPause(engine.PauseKindBatch, operation, firstSeq, engine.PausePayload{
		ParallelID: fmt.Sprintf("%s:%d", operation, firstSeq),
		Calls:      pending,
	})
}
