package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
)

func TestCheckpointManager_SaveLoadRoundTrip(t *testing.T) {
	ctx := t.Context()
	provider := cache.NewMemoryProvider()
	m := NewCheckpointManager("exec-1", "atp", provider)

	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 1, Kind: PauseKindLLM, Value: "hello"}))
	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 2, Kind: PauseKindTool, Value: map[string]any{"ok": true}}))

	table, err := m.Load(ctx)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "hello", table[1].Value)
}

func TestCheckpointManager_LoadEmpty(t *testing.T) {
	ctx := t.Context()
	m := NewCheckpointManager("exec-empty", "atp", cache.NewMemoryProvider())

	table, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestCheckpointManager_NeverRewrites(t *testing.T) {
	ctx := t.Context()
	provider := cache.NewMemoryProvider()
	m := NewCheckpointManager("exec-1", "atp", provider)

	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 1, Value: "first"}))
	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 1, Value: "second"}))

	table, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", table[1].Value, "manifest must not list sequence 1 twice and the stored record must stay the first write")
}

func TestCheckpointManager_Clear(t *testing.T) {
	ctx := t.Context()
	provider := cache.NewMemoryProvider()
	m := NewCheckpointManager("exec-1", "atp", provider)

	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 1, Value: "v"}))
	require.NoError(t, m.Clear(ctx))

	table, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestCheckpointManager_Isolation(t *testing.T) {
	ctx := t.Context()
	provider := cache.NewMemoryProvider()
	a := NewCheckpointManager("exec-a", "atp", provider)
	b := NewCheckpointManager("exec-b", "atp", provider)

	require.NoError(t, a.Save(ctx, CallbackRecord{Sequence: 1, Value: "a-value"}))
	require.NoError(t, b.Save(ctx, CallbackRecord{Sequence: 1, Value: "b-value"}))

	tableA, err := a.Load(ctx)
	require.NoError(t, err)
	tableB, err := b.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "a-value", tableA[1].Value)
	assert.Equal(t, "b-value", tableB[1].Value)
}

func TestCheckpointManager_TTLPropagated(t *testing.T) {
	ctx := t.Context()
	provider := cache.NewMemoryProvider()
	m := NewCheckpointManager("exec-1", "atp", provider)

	require.NoError(t, m.Save(ctx, CallbackRecord{Sequence: 1, Value: "v", TTL: time.Millisecond}))
	time.Sleep(5 * time.Millisecond)

	table, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, table, "expired callback records must not reappear in the replay table")
}
