package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

func TestComplete_PausesOnFirstCall(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)

	text, err := Complete(sc, "say hi", map[string]any{"temperature": 0.2})
	assert.Empty(t, text)
	require.Error(t, err)

	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, engine.PauseKindLLM, pause.Kind)
	assert.Equal(t, "llm.complete", pause.Operation)
	assert.Equal(t, int64(1), pause.Sequence)
	assert.Equal(t, "say hi", pause.Payload.Prompt)
}

func TestComplete_ReplaysFromCache(t *testing.T) {
	replay := engine.ReplayTable{1: {Sequence: 1, Kind: engine.PauseKindLLM, Value: "hello there"}}
	sc := engine.NewSequenceCounter(replay)

	text, err := Complete(sc, "say hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestRequestApproval_Pauses(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)

	_, err := RequestApproval(sc, "allow this?", map[string]any{"risk": "low"}, nil)
	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, engine.PauseKindApproval, pause.Kind)
	assert.Equal(t, "allow this?", pause.Payload.Message)
}

func TestInvokeTool_ReplayHit(t *testing.T) {
	replay := engine.ReplayTable{1: {Sequence: 1, Value: map[string]any{"ok": true}}}
	sc := engine.NewSequenceCounter(replay)

	result, err := InvokeTool(sc, "search", map[string]any{"q": "go"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
}

func TestCacheGetSet_Pause(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)

	_, err := CacheGet(sc, "k1")
	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, "get", pause.Payload.CacheOp)
	assert.Equal(t, "k1", pause.Payload.CacheKey)

	_, err2 := CacheSet(sc, "k1", 42)
	pause2, ok2 := engine.IsPause(err2)
	require.True(t, ok2)
	assert.Equal(t, "set", pause2.Payload.CacheOp)
	assert.Equal(t, 42, pause2.Payload.CacheValue)
}

func TestEmbedBatch_Pause(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)
	_, err := EmbedBatch(sc, []string{"a", "b"})
	pause, ok := engine.IsPause(err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, pause.Payload.Texts)
}

func TestComplete_FailsFastPastCallbackCap(t *testing.T) {
	sc := engine.NewSequenceCounter(nil)
	sc.SetMaxCallbacks(1)

	_, err := Complete(sc, "first", nil)
	pause, ok := engine.IsPause(err)
	require.True(t, ok, "the call within the cap should still pause normally")
	assert.Equal(t, int64(1), pause.Sequence)

	_, err = Complete(sc, "second", nil)
	require.Error(t, err)
	_, isPause := engine.IsPause(err)
	assert.False(t, isPause, "a call beyond the cap should fail, not pause")

	appErr, ok := err.(*apperror.Error)
	require.True(t, ok)
	assert.Equal(t, apperror.KindLimitExceeded, appErr.Kind)
}

func TestComplete_ReplayedCallsDoNotCountAgainstCap(t *testing.T) {
	replay := engine.ReplayTable{1: {Sequence: 1, Value: "cached"}}
	sc := engine.NewSequenceCounter(replay)
	sc.SetMaxCallbacks(1)

	text, err := Complete(sc, "say hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "cached", text)

	// The second, fresh call is sequence 2, beyond the cap of 1.
	_, err = Complete(sc, "say hi again", nil)
	require.Error(t, err)
	appErr, ok := err.(*apperror.Error)
	require.True(t, ok)
	assert.Equal(t, apperror.KindLimitExceeded, appErr.Kind)
}

func TestCatalog_Lookup(t *testing.T) {
	d, ok := Lookup("llm.complete")
	require.True(t, ok)
	assert.True(t, d.Sequenced)
	assert.NotNil(t, d.InputSchema)

	_, ok = Lookup("nonexistent.op")
	assert.False(t, ok)
}
