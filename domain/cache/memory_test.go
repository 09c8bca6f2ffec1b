package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider_SetGet(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.Set(ctx, "k1", []byte("v1"), 0))

	got, err := p.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestMemoryProvider_GetMissing(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	_, err := p.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProvider_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.Set(ctx, "k1", []byte("v1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := p.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProvider_Has(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	has, err := p.Has(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, p.Set(ctx, "k1", []byte("v1"), 0))
	has, err = p.Has(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryProvider_Delete(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, p.Delete(ctx, "k1"))

	_, err := p.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}
