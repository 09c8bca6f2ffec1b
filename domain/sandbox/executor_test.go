package sandbox

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
)

func newTestExecutor(t *testing.T, batchThreshold int) *Executor {
	t.Helper()
	return NewExecutor(ExecutorConfig{
		States:              engine.NewStateManager(),
		CacheProvider:       cache.NewMemoryProvider(),
		Transformer:         transform.NewTransformer(64, batchThreshold),
		Logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		CheckpointPrefix:    "test",
		DefaultWallClock:    0,
		DefaultMaxCallbacks: 200,
		DefaultMaxLoop:      1000,
		BatchSizeThreshold:  batchThreshold,
	})
}

// S1: a pure program with no callbacks completes on its first attempt.
func TestExecutor_S1_PureProgramCompletes(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	view, err := x.Submit(ctx, SubmitRequest{Source: "def main():\n    return 1 + 2\n"})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, view.Status)
	assert.EqualValues(t, 3, view.Result)
}

// S2: a single LLM call pauses, then completes once resumed.
func TestExecutor_S2_SingleLLMPauseResume(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	src := "def main():\n    return llm.complete(\"hi\", {})\n"
	view, err := x.Submit(ctx, SubmitRequest{Source: src})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	require.NotNil(t, view.Continuation)
	assert.Equal(t, engine.PauseKindLLM, view.Continuation.Kind)
	assert.EqualValues(t, 1, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 1, Value: "hello"})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, view.Status)
	assert.Equal(t, "hello", view.Result)
}

// S3: a sequential map (named callback, so batch-ineligible) over 3
// elements pauses once per element across 3 resumes.
func TestExecutor_S3_SequentialMapThreePauses(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	src := `
def step(x, i):
    progress.report("working", {"item": x})
    return llm.complete(x, {})

def main():
    return map(["a", "b", "c"], step)
`
	view, err := x.Submit(ctx, SubmitRequest{Source: src})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 1, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 1, Value: "A"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 2, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 2, Value: "B"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 3, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 3, Value: "C"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusCompleted, view.Status)
	assert.Equal(t, []any{"A", "B", "C"}, view.Result)
	assert.Equal(t, 1, view.Transform.ArrayMethodsRewritten, "transform metadata should be surfaced on the view")
}

// S4: a map whose callback is a one-call lambda over >= threshold elements
// is classified batch-eligible and fuses into a single batch pause,
// resolved by one ResumeBatch call.
func TestExecutor_S4_BatchedMapSinglePause(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	src := `
def main():
    return map(["a", "b", "c"], lambda x, i: llm.complete(x, {}))
`
	view, err := x.Submit(ctx, SubmitRequest{Source: src})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	require.Equal(t, engine.PauseKindBatch, view.Continuation.Kind)
	require.Len(t, view.Continuation.Payload.Calls, 3)

	results := map[int64]any{}
	for _, call := range view.Continuation.Payload.Calls {
		results[call.Sequence] = "R:" + call.Payload.Prompt
	}

	view, err = x.ResumeBatch(ctx, ResumeBatchRequest{
		ExecutionID: view.ID,
		ParallelID:  view.Continuation.Payload.ParallelID,
		Results:     results,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, view.Status)
	assert.Equal(t, []any{"R:a", "R:b", "R:c"}, view.Result)
}

// S5: a native for-of loop with interleaved accumulator logic pauses once
// per iteration, bypassing the array-method dispatch table entirely.
func TestExecutor_S5_ForOfLoopSequentialPauses(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	src := `
def main():
    total = ""
    for x in ["a", "b", "c"]:
        total = total + llm.complete(x, {})
    return total
`
	view, err := x.Submit(ctx, SubmitRequest{Source: src})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 1, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 1, Value: "A"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 2, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 2, Value: "B"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)
	assert.EqualValues(t, 3, view.Continuation.Sequence)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 3, Value: "C"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusCompleted, view.Status)
	assert.Equal(t, "ABC", view.Result)
}

// S6: an uncaught program error fails the execution as a user error.
func TestExecutor_S6_UncaughtErrorFails(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	view, err := x.Submit(ctx, SubmitRequest{Source: "def main():\n    fail(\"boom\")\n"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusFailed, view.Status)
	require.NotNil(t, view.Error)
	assert.Equal(t, "user-error", view.Error.Kind)
}

// A program that issues more callbacks than its configured limit fails
// limit-exceeded instead of pausing indefinitely (spec §7 "limit-exceeded").
func TestExecutor_MaxCallbacksFailsFast(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	src := `
def main():
    a = llm.complete("one", {})
    b = llm.complete("two", {})
    return a + b
`
	limits := &engine.Limits{MaxCallbacks: 1, MaxLoopIterations: 1000}
	view, err := x.Submit(ctx, SubmitRequest{Source: src, Limits: limits})
	require.NoError(t, err)
	require.Equal(t, engine.StatusPaused, view.Status)

	view, err = x.Resume(ctx, ResumeRequest{ExecutionID: view.ID, Sequence: 1, Value: "A"})
	require.NoError(t, err)
	require.Equal(t, engine.StatusFailed, view.Status)
	require.NotNil(t, view.Error)
	assert.Equal(t, "limit-exceeded", view.Error.Kind)
}

// Status/Cancel round trip.
func TestExecutor_StatusAndCancel(t *testing.T) {
	x := newTestExecutor(t, 2)
	ctx := context.Background()

	view, err := x.Submit(ctx, SubmitRequest{Source: "def main():\n    return llm.complete(\"hi\", {})\n"})
	require.NoError(t, err)

	status, err := x.Status(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Status, status.Status)

	cancelled, err := x.Cancel(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusFailed, cancelled.Status)
	assert.Equal(t, "cancelled", cancelled.Error.Kind)
}
