package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
)

// oneShotLLMCallback builds a Starlark closure that makes exactly one
// Resolve()-driven call per invocation, simulating `lambda x, i:
// llm.complete(x, {})` for the batch-dispatch builtin tests below.
func oneShotLLMCallback(sc *engine.SequenceCounter) starlark.Callable {
	return starlark.NewBuiltin("cb", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		seq, rec, hit := sc.Resolve()
		if hit {
			return starlark.String(rec.Value.(string)), nil
		}
		return nil, engine.NewPause(engine.PauseKindLLM, "llm.complete", seq, engine.PausePayload{Prompt: args[0].String()})
	})
}

func TestBatchParallel_PausesWithFusedCallsOnFirstAttempt(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)
	payloads := []engine.PausePayload{
		{Prompt: "one"},
		{Prompt: "two"},
		{Prompt: "three"},
	}

	_, err := BatchParallel(sc, engine.PauseKindLLM, "map:llm.complete", payloads)
	require.Error(t, err)

	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, engine.PauseKindBatch, pause.Kind)
	require.Len(t, pause.Payload.Calls, 3)
	assert.Equal(t, int64(1), pause.Payload.Calls[0].Sequence)
	assert.Equal(t, int64(3), pause.Payload.Calls[2].Sequence)
}

func TestBatchParallel_ResolvesFromReplayOnResume(t *testing.T) {
	replay := engine.ReplayTable{
		1: {Sequence: 1, Value: "a"},
		2: {Sequence: 2, Value: "b"},
		3: {Sequence: 3, Value: "c"},
	}
	sc := engine.NewSequenceCounter(replay)
	payloads := []engine.PausePayload{{Prompt: "one"}, {Prompt: "two"}, {Prompt: "three"}}

	results, err := BatchParallel(sc, engine.PauseKindLLM, "map:llm.complete", payloads)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, results)
}

func TestBatchParallel_PartialReplayStillPausesForRemainder(t *testing.T) {
	replay := engine.ReplayTable{1: {Sequence: 1, Value: "a"}}
	sc := engine.NewSequenceCounter(replay)
	payloads := []engine.PausePayload{{Prompt: "one"}, {Prompt: "two"}}

	_, err := BatchParallel(sc, engine.PauseKindLLM, "map:llm.complete", payloads)
	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	require.Len(t, pause.Payload.Calls, 1)
	assert.Equal(t, int64(2), pause.Payload.Calls[0].Sequence)
}

func TestResumableMapBatch_FusesAllPausesOnFirstAttempt(t *testing.T) {
	thread := &starlark.Thread{}
	sc := engine.NewSequenceCounter(nil)
	guard := NewIterationGuard(100)
	cb := oneShotLLMCallback(sc)

	_, err := ResumableMapBatch(thread, guard, []starlark.Value{starlark.String("a"), starlark.String("b"), starlark.String("c")}, cb, "map.batch")
	require.Error(t, err)

	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, engine.PauseKindBatch, pause.Kind)
	require.Len(t, pause.Payload.Calls, 3)
	assert.Equal(t, int64(1), pause.Payload.Calls[0].Sequence)
	assert.Equal(t, int64(3), pause.Payload.Calls[2].Sequence)
}

func TestResumableMapBatch_ResolvesFromReplayOnResume(t *testing.T) {
	thread := &starlark.Thread{}
	replay := engine.ReplayTable{
		1: {Sequence: 1, Value: "ra"},
		2: {Sequence: 2, Value: "rb"},
	}
	sc := engine.NewSequenceCounter(replay)
	guard := NewIterationGuard(100)
	cb := oneShotLLMCallback(sc)

	result, err := ResumableMapBatch(thread, guard, []starlark.Value{starlark.String("a"), starlark.String("b")}, cb, "map.batch")
	require.NoError(t, err)
	assert.Equal(t, `["ra", "rb"]`, result.String())
}
