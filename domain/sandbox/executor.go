// Package sandbox implements the Sandbox Executor (spec §4.I): the one
// component that actually runs a submitted program, wiring the Code
// Transformer, Checkpoint Manager, Sequence Counter, and Runtime APIs
// together into a single Submit/Resume/Status/Cancel surface.
//
// It is grounded on the teacher's domain/agents AgentExecutor
// (Execute/Resume/executeWithRunInternal): the same timeout-context plus
// three-way error classification (parent cancel / attempt timeout / genuine
// failure) generalized from one ADK pipeline run to one Starlark
// compile-and-call attempt.
package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.starlark.net/starlark"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/primitives"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/runtime"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/logger"
)

// ExecutorConfig holds the Sandbox Executor's dependencies.
type ExecutorConfig struct {
	States        *engine.StateManager
	CacheProvider cache.Provider
	Transformer   *transform.Transformer
	Logger        *slog.Logger

	CheckpointPrefix    string
	DefaultWallClock    time.Duration
	DefaultMaxCallbacks int
	DefaultMaxLoop      int
	BatchSizeThreshold  int
}

// Executor runs submitted programs and answers Submit/Resume/Status/Cancel
// (spec §6 external interfaces).
type Executor struct {
	states      *engine.StateManager
	provider    cache.Provider
	transformer *transform.Transformer
	log         *slog.Logger

	checkpointPrefix string
	defaultLimits    engine.Limits
	batchThreshold   int
}

// NewExecutor builds a Sandbox Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		states:           cfg.States,
		provider:         cfg.CacheProvider,
		transformer:      cfg.Transformer,
		log:              log.With(logger.Scope("sandbox.executor")),
		checkpointPrefix: cfg.CheckpointPrefix,
		batchThreshold:   cfg.BatchSizeThreshold,
		defaultLimits: engine.Limits{
			WallClock:         cfg.DefaultWallClock,
			MaxCallbacks:      cfg.DefaultMaxCallbacks,
			MaxLoopIterations: cfg.DefaultMaxLoop,
		},
	}
}

// Submit compiles and runs a brand new program to its first pause or
// completion (spec §6 "Submit").
func (x *Executor) Submit(ctx context.Context, req SubmitRequest) (*ExecutionView, error) {
	limits := x.defaultLimits
	if req.Limits != nil {
		limits = *req.Limits
	}

	exec := &engine.Execution{
		ID:               uuid.NewString(),
		OwnerID:          req.OwnerID,
		Source:           req.Source,
		Limits:           limits,
		CheckpointPrefix: x.checkpointPrefix,
	}
	x.states.Create(exec)

	return x.attempt(ctx, exec)
}

// Resume answers one outstanding Continuation Request and re-runs the
// program from the start with the new result folded into its replay table
// (spec §6 "Resume", §4.B "deterministic replay").
func (x *Executor) Resume(ctx context.Context, req ResumeRequest) (*ExecutionView, error) {
	exec, err := x.states.Get(req.ExecutionID)
	if err != nil {
		return nil, err
	}
	if exec.Status != engine.StatusPaused {
		return nil, apperror.NewBadRequest("execution is not paused")
	}
	if exec.Continuation == nil || exec.Continuation.Sequence != req.Sequence {
		return nil, apperror.NewBadRequest("resume does not match the outstanding continuation")
	}

	cm := engine.NewCheckpointManager(exec.ID, exec.CheckpointPrefix, x.provider)
	rec := engine.CallbackRecord{
		Sequence: req.Sequence,
		Kind:     exec.Continuation.Kind,
		Value:    req.Value,
		TTL:      0,
	}
	if err := cm.Save(ctx, rec); err != nil {
		return nil, err
	}

	if err := x.states.MarkRunning(exec.ID); err != nil {
		return nil, err
	}
	return x.attempt(ctx, exec)
}

// ResumeBatch answers every Call in an outstanding Batch Call pause at once
// (spec §6 "Resume", §4.G "Batch Parallel Primitive").
func (x *Executor) ResumeBatch(ctx context.Context, req ResumeBatchRequest) (*ExecutionView, error) {
	exec, err := x.states.Get(req.ExecutionID)
	if err != nil {
		return nil, err
	}
	if exec.Status != engine.StatusPaused {
		return nil, apperror.NewBadRequest("execution is not paused")
	}
	if exec.Continuation == nil || exec.Continuation.Kind != engine.PauseKindBatch || exec.Continuation.Payload.ParallelID != req.ParallelID {
		return nil, apperror.NewBadRequest("resume does not match the outstanding batch continuation")
	}

	cm := engine.NewCheckpointManager(exec.ID, exec.CheckpointPrefix, x.provider)
	for _, call := range exec.Continuation.Payload.Calls {
		value, ok := req.Results[call.Sequence]
		if !ok {
			return nil, apperror.NewBadRequest("missing result for sequence in batch resume")
		}
		rec := engine.CallbackRecord{Sequence: call.Sequence, Kind: call.Kind, Value: value}
		if err := cm.Save(ctx, rec); err != nil {
			return nil, err
		}
	}

	if err := x.states.MarkRunning(exec.ID); err != nil {
		return nil, err
	}
	return x.attempt(ctx, exec)
}

// Status returns the current view of an Execution (spec §6 "Status").
func (x *Executor) Status(_ context.Context, id string) (*ExecutionView, error) {
	exec, err := x.states.Get(id)
	if err != nil {
		return nil, err
	}
	return viewOf(exec), nil
}

// Cancel transitions a running or paused Execution to failed/cancelled and
// drops its checkpoint state (spec §6 "Cancel").
func (x *Executor) Cancel(ctx context.Context, id string) (*ExecutionView, error) {
	exec, err := x.states.Get(id)
	if err != nil {
		return nil, err
	}
	if exec.Status == engine.StatusCompleted || exec.Status == engine.StatusFailed {
		return viewOf(exec), nil
	}

	cm := engine.NewCheckpointManager(exec.ID, exec.CheckpointPrefix, x.provider)
	if err := cm.Clear(ctx); err != nil {
		x.log.Warn("failed to clear checkpoint state on cancel", logger.Error(err), slog.String("executionId", id))
	}
	if err := x.states.MarkFailed(id, &engine.ExecutionError{
		Kind:    string(apperror.KindCancelled),
		Message: "execution cancelled by caller",
	}); err != nil {
		return nil, err
	}
	return x.Status(ctx, id)
}

// attempt transforms the program (once; cached by content hash thereafter),
// loads the replay table, and runs one compile-and-call cycle to the next
// pause/completion/failure, persisting the outcome to the State Manager.
func (x *Executor) attempt(ctx context.Context, exec *engine.Execution) (*ExecutionView, error) {
	result, err := x.transformer.Transform(exec.Source)
	if err != nil {
		_ = x.states.MarkFailed(exec.ID, classify(err))
		return x.Status(ctx, exec.ID)
	}
	exec.CodeHash = result.CodeHash
	exec.Transform = result.Metadata

	cm := engine.NewCheckpointManager(exec.ID, exec.CheckpointPrefix, x.provider)
	replay, err := cm.Load(ctx)
	if err != nil {
		_ = x.states.MarkFailed(exec.ID, classify(err))
		return x.Status(ctx, exec.ID)
	}

	sc := engine.NewSequenceCounter(replay)
	sc.SetMaxCallbacks(exec.Limits.MaxCallbacks)
	guard := primitives.NewIterationGuard(exec.Limits.MaxLoopIterations)
	reporter := runtime.NewReporter(x.log, exec.ID)
	env := &runEnv{sc: sc, guard: guard, reporter: reporter, dispatch: result.Dispatch, batchThreshold: x.batchThreshold}

	attemptCtx := ctx
	var cancel context.CancelFunc
	if exec.Limits.WallClock > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, exec.Limits.WallClock)
		defer cancel()
	}

	value, runErr := x.run(attemptCtx, exec.Source, env)
	exec.StepCount = sc.GetCallSequenceNumber()

	if runErr == nil {
		goValue, convErr := toGo(value)
		if convErr != nil {
			_ = x.states.MarkFailed(exec.ID, classify(convErr))
			return x.Status(ctx, exec.ID)
		}
		if err := x.states.MarkCompleted(exec.ID, goValue); err != nil {
			return nil, err
		}
		return x.Status(ctx, exec.ID)
	}

	if pause, ok := engine.IsPause(runErr); ok {
		continuation := &engine.ContinuationRequest{
			ExecutionID: exec.ID,
			Kind:        pause.Kind,
			Operation:   pause.Operation,
			Payload:     pause.Payload,
			Sequence:    pause.Sequence,
			ResumeURL:   "/v1/executions/" + exec.ID + "/resume",
		}
		if err := x.states.MarkPaused(exec.ID, continuation); err != nil {
			return nil, err
		}
		return x.Status(ctx, exec.ID)
	}

	if ctx.Err() != nil {
		_ = x.states.MarkFailed(exec.ID, &engine.ExecutionError{
			Kind:    string(apperror.KindCancelled),
			Message: "parent context cancelled",
		})
		return x.Status(ctx, exec.ID)
	}
	if attemptCtx.Err() != nil {
		_ = x.states.MarkFailed(exec.ID, &engine.ExecutionError{
			Kind:    string(apperror.KindLimitExceeded),
			Message: "execution exceeded its wall-clock limit",
		})
		return x.Status(ctx, exec.ID)
	}

	_ = x.states.MarkFailed(exec.ID, classify(runErr))
	return x.Status(ctx, exec.ID)
}

// run executes a program's entry point to completion, pause, or error. A
// program must define a zero-argument `main()`; its return value becomes the
// Execution's Result (spec §8 scenario S1 "return 1+2").
//
// Cancellation is cooperative: thread.Cancel is checked by the Starlark
// evaluator at loop/call boundaries, so an attemptCtx timeout races the
// program on a separate goroutine rather than blocking the caller forever.
// A native (non-resumable) `for` loop is not otherwise guarded against
// runaway iteration — only this wall-clock backstop and the explicit
// resumable_for_of/resumable_while/resumable_for_loop builtins enforce the
// iteration cap.
func (x *Executor) run(ctx context.Context, source string, env *runEnv) (starlark.Value, error) {
	thread := &starlark.Thread{Name: "atp"}
	predeclared := buildGlobals(env)

	type outcome struct {
		value starlark.Value
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		globals, err := starlark.ExecFile(thread, "program.star", source, predeclared)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		main, ok := globals["main"].(starlark.Callable)
		if !ok {
			done <- outcome{err: apperror.NewUserError("program must define a zero-argument main()")}
			return
		}
		value, err := starlark.Call(thread, main, nil, nil)
		done <- outcome{value: value, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		thread.Cancel(ctx.Err().Error())
		o := <-done
		return o.value, o.err
	}
}

// classify turns an error surfaced from a transform/checkpoint/run failure
// into an ExecutionError (spec §7 taxonomy). apperror.Error values carry
// their own kind, also when wrapped in a starlark.EvalError by the builtin
// that raised them; anything else is an uncaught user-program error.
func classify(err error) *engine.ExecutionError {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return &engine.ExecutionError{Kind: string(appErr.Kind), Message: appErr.Message, Details: appErr.Details}
	}
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return &engine.ExecutionError{Kind: string(apperror.KindUserError), Message: evalErr.Msg}
	}
	return &engine.ExecutionError{Kind: string(apperror.KindUserError), Message: err.Error()}
}
