// Package cache defines the Cache Provider abstraction (spec §4.A): a
// durable key→value store with TTL, consumed by the Checkpoint Manager (the
// Execution State Manager and the transform cache keep their own in-memory
// maps). It is grounded on
// dshills-langgraph-go's pluggable SQL checkpoint store and the teacher's
// internal/database pgx/bun wiring.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has no value (or has expired).
var ErrNotFound = errors.New("cache: key not found")

// Provider is the abstract mapping every durability layer implements.
// Atomicity at the single-key level is sufficient (spec §4.A).
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
}
