package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// StateManager keeps the in-process index of executions: id → Execution
// (spec §4.J). It is grounded on the teacher's domain/agents Repository +
// AgentRun status transitions, generalized from a Postgres-backed repository
// to an in-memory index (durability of callback results lives in the Cache
// Provider via the Checkpoint Manager; the Execution's bookkeeping fields are
// process-local, matching spec §5 "Ownership: the Execution State Manager
// owns the set of paused Executions").
type StateManager struct {
	mu         sync.Mutex
	executions map[string]*Execution
}

// NewStateManager creates an empty StateManager.
func NewStateManager() *StateManager {
	return &StateManager{executions: make(map[string]*Execution)}
}

// Create registers a brand new Execution in the running state.
func (m *StateManager) Create(exec *Execution) {
	exec.CreatedAt = time.Now()
	exec.LastActivityAt = exec.CreatedAt
	exec.Status = StatusRunning

	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions[exec.ID] = exec
}

// Get returns the Execution for id, or an apperror.ErrNotFound.
func (m *StateManager) Get(id string) (*Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.executions[id]
	if !ok {
		return nil, apperror.NewNotFound("execution", id)
	}
	return exec, nil
}

// MarkPaused transitions an Execution to paused with its continuation
// payload.
func (m *StateManager) MarkPaused(id string, continuation *ContinuationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.executions[id]
	if !ok {
		return apperror.NewNotFound("execution", id)
	}
	exec.Status = StatusPaused
	exec.Continuation = continuation
	exec.LastActivityAt = time.Now()
	return nil
}

// MarkCompleted transitions an Execution to completed with its result.
func (m *StateManager) MarkCompleted(id string, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.executions[id]
	if !ok {
		return apperror.NewNotFound("execution", id)
	}
	exec.Status = StatusCompleted
	exec.Result = result
	exec.Continuation = nil
	exec.LastActivityAt = time.Now()
	return nil
}

// MarkFailed transitions an Execution to failed with a classified error.
func (m *StateManager) MarkFailed(id string, execErr *ExecutionError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.executions[id]
	if !ok {
		return apperror.NewNotFound("execution", id)
	}
	exec.Status = StatusFailed
	exec.Error = execErr
	exec.Continuation = nil
	exec.LastActivityAt = time.Now()
	return nil
}

// MarkRunning transitions a paused Execution back to running on resume.
func (m *StateManager) MarkRunning(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exec, ok := m.executions[id]
	if !ok {
		return apperror.NewNotFound("execution", id)
	}
	exec.Status = StatusRunning
	exec.LastActivityAt = time.Now()
	return nil
}

// SweepExpired fails every paused Execution whose TTL has elapsed since its
// last activity, returning the ids that were swept (spec §4.I "A paused
// execution that is not resumed within its TTL is swept to failed/expired").
func (m *StateManager) SweepExpired(now time.Time, ttl time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var swept []string
	for id, exec := range m.executions {
		if exec.Status != StatusPaused {
			continue
		}
		if now.Sub(exec.LastActivityAt) <= ttl {
			continue
		}
		exec.Status = StatusFailed
		exec.Error = &ExecutionError{
			Kind:    string(apperror.KindCancelled),
			Message: fmt.Sprintf("paused execution expired after %s without resume", ttl),
		}
		exec.Continuation = nil
		swept = append(swept, id)
	}
	return swept
}
