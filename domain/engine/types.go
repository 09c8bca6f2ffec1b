// Package engine implements the core resumable-execution machinery: the
// Checkpoint Manager (4.B), the Sequence Counter & Replay Cache (4.C), the
// Pause Protocol (4.D), and the Execution State Manager (4.J). It is
// grounded on the teacher's domain/agents executor/run state machine
// (Execute/Resume/executeWithRunInternal, RunStatusPaused) generalized from
// one ADK pipeline into a sequence-number-driven replay engine.
package engine

import (
	"time"
)

// Status is an Execution's lifecycle state (spec §3, §4.I).
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PauseKind is the kind of callback that raised a pause (spec §3, §6).
type PauseKind string

const (
	PauseKindLLM       PauseKind = "LLM"
	PauseKindApproval  PauseKind = "approval"
	PauseKindEmbedding PauseKind = "embedding"
	PauseKindTool      PauseKind = "tool"
	PauseKindCache     PauseKind = "cache"
	PauseKindBatch     PauseKind = "batch"
)

// Limits bounds a single execution attempt (spec §3 "per-execution limits").
type Limits struct {
	WallClock         time.Duration
	MaxCallbacks      int
	MaxLoopIterations int
}

// CallbackRecord is a persisted callback result (spec §3).
type CallbackRecord struct {
	Sequence  int64         `json:"sequence"`
	Kind      PauseKind     `json:"kind"`
	Value     any           `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
}

// PausePayload is the kind-specific payload of a Pause Signal (spec §3, §6).
type PausePayload struct {
	// LLM
	Prompt  string         `json:"prompt,omitempty"`
	Options map[string]any `json:"options,omitempty"`

	// Approval
	Message string         `json:"message,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	Schema  map[string]any `json:"schema,omitempty"`

	// Embedding
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`

	// Tool
	ToolName string         `json:"toolName,omitempty"`
	Input    map[string]any `json:"input,omitempty"`

	// Cache (atp.cache, distinct from the engine's own Checkpoint cache)
	CacheOp    string `json:"cacheOp,omitempty"`
	CacheKey   string `json:"cacheKey,omitempty"`
	CacheValue any    `json:"cacheValue,omitempty"`

	// Batch
	ParallelID string      `json:"parallelId,omitempty"`
	Calls      []BatchCall `json:"calls,omitempty"`
}

// BatchCall is one entry in a batch pause (spec §3 "Batch Call").
type BatchCall struct {
	Kind     PauseKind    `json:"kind"`
	Payload  PausePayload `json:"payload"`
	Sequence int64        `json:"sequenceNumber"`
}

// ContinuationRequest is returned to the client when an Execution pauses
// (spec §3, §6).
type ContinuationRequest struct {
	ExecutionID string       `json:"executionId"`
	Kind        PauseKind    `json:"kind"`
	Operation   string       `json:"operation"`
	Payload     PausePayload `json:"payload"`
	Sequence    int64        `json:"sequenceNumber"`
	ResumeURL   string       `json:"resumeUrl"`
}

// TransformMetadata records what the Code Transformer did to a program
// (spec §4.H step 6).
type TransformMetadata struct {
	CodeHash               string   `json:"codeHash"`
	Patterns               []string `json:"patterns"`
	LoopsTransformed       int      `json:"loopsTransformed"`
	ArrayMethodsRewritten  int      `json:"arrayMethodsRewritten"`
	ParallelCallsRewritten int      `json:"parallelCallsRewritten"`
	BatchParallelEmitted   bool     `json:"batchParallelEmitted"`
}

// Execution is the durable+in-memory record for one submit+resume* lifecycle
// (spec §3 "Execution").
type Execution struct {
	ID               string
	OwnerID          string
	Source           string
	CodeHash         string
	Transform        TransformMetadata
	Limits           Limits
	CheckpointPrefix string
	Status           Status
	Continuation     *ContinuationRequest
	Result           any
	Error            *ExecutionError
	StepCount        int64
	CreatedAt        time.Time
	LastActivityAt   time.Time
}

// ExecutionError is the failure record attached to a failed Execution
// (spec §7 taxonomy).
type ExecutionError struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
