package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceCounter_MonotonicNoGaps(t *testing.T) {
	sc := NewSequenceCounter(nil)
	for i := int64(1); i <= 5; i++ {
		assert.Equal(t, i, sc.NextSequenceNumber())
	}
}

func TestSequenceCounter_ResolveCacheHit(t *testing.T) {
	replay := ReplayTable{1: {Sequence: 1, Value: "hello"}}
	sc := NewSequenceCounter(replay)

	seq, rec, hit := sc.Resolve()
	assert.Equal(t, int64(1), seq)
	assert.True(t, hit)
	assert.Equal(t, "hello", rec.Value)

	// next call is not cached
	seq2, _, hit2 := sc.Resolve()
	assert.Equal(t, int64(2), seq2)
	assert.False(t, hit2)
}

func TestSequenceCounter_ShouldPauseForClient(t *testing.T) {
	replay := ReplayTable{1: {Sequence: 1, Value: "a"}}
	sc := NewSequenceCounter(replay)

	assert.False(t, sc.ShouldPauseForClient(), "seq 1 is cached, should not need to pause yet")
	_, _, _ = sc.Resolve() // consumes seq 1
	assert.True(t, sc.ShouldPauseForClient(), "seq 2 is not cached")
}

func TestSequenceCounter_ReserveBlock(t *testing.T) {
	sc := NewSequenceCounter(nil)
	first := sc.ReserveBlock(3)
	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(3), sc.GetCallSequenceNumber())

	next := sc.NextSequenceNumber()
	assert.Equal(t, int64(4), next)
}

func TestSequenceCounter_ContextScoping(t *testing.T) {
	sc := NewSequenceCounter(nil)
	ctx := WithSequenceCounter(t.Context(), sc)

	got, ok := SequenceCounterFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, sc, got)

	_, ok = SequenceCounterFromContext(t.Context())
	assert.False(t, ok)
}
