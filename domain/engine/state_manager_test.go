package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager_CreateGet(t *testing.T) {
	m := NewStateManager()
	m.Create(&Execution{ID: "e1"})

	exec, err := m.Get("e1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, exec.Status)
}

func TestStateManager_GetMissing(t *testing.T) {
	m := NewStateManager()
	_, err := m.Get("missing")
	assert.Error(t, err)
}

func TestStateManager_Transitions(t *testing.T) {
	m := NewStateManager()
	m.Create(&Execution{ID: "e1"})

	cont := &ContinuationRequest{ExecutionID: "e1", Sequence: 1}
	require.NoError(t, m.MarkPaused("e1", cont))
	exec, _ := m.Get("e1")
	assert.Equal(t, StatusPaused, exec.Status)
	assert.Equal(t, cont, exec.Continuation)

	require.NoError(t, m.MarkRunning("e1"))
	exec, _ = m.Get("e1")
	assert.Equal(t, StatusRunning, exec.Status)

	require.NoError(t, m.MarkCompleted("e1", 42))
	exec, _ = m.Get("e1")
	assert.Equal(t, StatusCompleted, exec.Status)
	assert.Equal(t, 42, exec.Result)
	assert.Nil(t, exec.Continuation)
}

func TestStateManager_MarkFailed(t *testing.T) {
	m := NewStateManager()
	m.Create(&Execution{ID: "e1"})

	require.NoError(t, m.MarkFailed("e1", &ExecutionError{Kind: "user-error", Message: "boom"}))
	exec, _ := m.Get("e1")
	assert.Equal(t, StatusFailed, exec.Status)
	assert.Equal(t, "boom", exec.Error.Message)
}

func TestStateManager_SweepExpired(t *testing.T) {
	m := NewStateManager()
	m.Create(&Execution{ID: "stale"})
	require.NoError(t, m.MarkPaused("stale", &ContinuationRequest{ExecutionID: "stale"}))

	m.Create(&Execution{ID: "fresh"})
	require.NoError(t, m.MarkPaused("fresh", &ContinuationRequest{ExecutionID: "fresh"}))

	// Force "stale" to look old.
	exec, _ := m.Get("stale")
	exec.LastActivityAt = time.Now().Add(-2 * time.Hour)

	swept := m.SweepExpired(time.Now(), time.Hour)
	assert.ElementsMatch(t, []string{"stale"}, swept)

	staleExec, _ := m.Get("stale")
	assert.Equal(t, StatusFailed, staleExec.Status)

	freshExec, _ := m.Get("fresh")
	assert.Equal(t, StatusPaused, freshExec.Status)
}
