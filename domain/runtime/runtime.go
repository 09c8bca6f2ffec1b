// Package runtime implements the Runtime APIs (spec §4.E): the host
// functions an agent program calls to reach the outside world — llm.complete,
// approval.request, progress.report, embedding.embed(Batch), tool.invoke, and
// cache.get/set. Every one of them (progress.report excepted) follows the
// same shape: advance the Sequence Counter, check the Replay Cache, and
// either return the cached result or raise a engine.PauseSignal so the
// Sandbox Executor can suspend the Execution and hand a Continuation Request
// back to the caller.
//
// It is grounded on the teacher's domain/agents tool-calling layer
// (AgentExecutor dispatching to registered tools and recording their
// results), generalized from "tool calls resolved inline" to "tool calls
// resolved across a pause/resume boundary".
package runtime

import (
	"fmt"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// resolve is the shared advance-then-lookup step every sequenced Runtime API
// performs before deciding whether to pause. A fresh (non-replayed) call
// beyond the execution's configured callback cap fails fast with
// limit-exceeded instead of raising a pause the client would only have its
// resume rejected for (spec §5 "cancellation... callback-count cap").
func resolve(sc *engine.SequenceCounter) (seq int64, rec engine.CallbackRecord, hit bool, err error) {
	seq, rec, hit = sc.Resolve()
	if !hit && sc.CallbackCapExceeded(seq) {
		return seq, rec, hit, apperror.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("execution exceeded its callback limit at sequence %d", seq))
	}
	return seq, rec, hit, nil
}
