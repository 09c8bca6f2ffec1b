package sandbox

import "github.com/look4regev/agent-tool-protocol-sub003/domain/engine"

// SubmitRequest is the external interface's Submit payload (spec §6): a
// Starlark program defining a zero-argument `main()` entry point, plus
// optional per-execution limit overrides.
type SubmitRequest struct {
	OwnerID string
	Source  string
	Limits  *engine.Limits
}

// ResumeRequest answers one outstanding Continuation Request: the sequence
// number it was raised at (used only to detect a stale resume against an
// Execution that has since moved on) and the value the external callback
// produced.
type ResumeRequest struct {
	ExecutionID string
	Sequence    int64
	Value       any
}

// ResumeBatchRequest answers every Call in a Batch Call pause at once.
type ResumeBatchRequest struct {
	ExecutionID string
	ParallelID  string
	Results     map[int64]any // sequence -> value
}

// ExecutionView is the external representation of an Execution returned by
// Submit/Resume/Status (spec §6). Transform surfaces the Code Transformer's
// pattern list and counts (spec §4.H step 6) alongside StepCount, the
// cumulative callback count — SPEC_FULL.md's "execution introspection"
// supplement to the bare Status operation.
type ExecutionView struct {
	ID           string
	Status       engine.Status
	Result       any
	Error        *engine.ExecutionError
	Continuation *engine.ContinuationRequest
	StepCount    int64
	Transform    engine.TransformMetadata
}

func viewOf(exec *engine.Execution) *ExecutionView {
	return &ExecutionView{
		ID:           exec.ID,
		Status:       exec.Status,
		Result:       exec.Result,
		Error:        exec.Error,
		Continuation: exec.Continuation,
		StepCount:    exec.StepCount,
		Transform:    exec.Transform,
	}
}
