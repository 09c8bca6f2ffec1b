package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
)

// ReplayTable maps a sequence number to the callback result recorded for it
// (spec §3 "Replay Table"). It is frozen for the lifetime of one execution
// attempt: the Checkpoint Manager builds it once at execution start and
// nothing mutates it afterward — new results are appended to the cache
// provider, not to this table, until the *next* attempt reloads it.
type ReplayTable map[int64]CallbackRecord

// CheckpointManager persists and loads per-execution callback results keyed
// by sequence number (spec §4.B). It is grounded on the teacher's
// AgentExecutor.Resume, which loads FindMessagesByRunID before replaying —
// generalized here from "prior LLM messages" to "prior callback records".
type CheckpointManager struct {
	executionID string
	prefix      string
	provider    cache.Provider
}

// NewCheckpointManager constructs a CheckpointManager for one execution id.
func NewCheckpointManager(executionID, prefix string, provider cache.Provider) *CheckpointManager {
	if prefix == "" {
		prefix = "atp"
	}
	return &CheckpointManager{executionID: executionID, prefix: prefix, provider: provider}
}

func (m *CheckpointManager) key(seq int64) string {
	return fmt.Sprintf("%s:%s:%d", m.prefix, m.executionID, seq)
}

func (m *CheckpointManager) manifestKey() string {
	return fmt.Sprintf("%s:%s:manifest", m.prefix, m.executionID)
}

// Load eagerly loads every known callback record for this execution id into
// a ReplayTable (spec §4.B "eagerly load... a manifest key").
func (m *CheckpointManager) Load(ctx context.Context) (ReplayTable, error) {
	seqs, err := m.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	table := make(ReplayTable, len(seqs))
	for _, seq := range seqs {
		key := m.key(seq)
		raw, err := m.provider.Get(ctx, key)
		if err == cache.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, apperror.NewCheckpointIO("load", key, err)
		}
		var rec CallbackRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, apperror.NewCheckpointIO("load", key, err)
		}
		table[rec.Sequence] = rec
	}
	return table, nil
}

// Save writes a new callback result to the cache before returning control to
// the runtime (spec §4.B, invariant 2: "Every completed callback has a cache
// entry at its sequence number before the resume that triggered it returns").
// A sequence already listed in the manifest is left as it is.
func (m *CheckpointManager) Save(ctx context.Context, rec CallbackRecord) error {
	seqs, err := m.loadManifest(ctx)
	if err != nil {
		return err
	}
	for _, s := range seqs {
		if s == rec.Sequence {
			return nil // invariant: a sequence is never rewritten within an execution
		}
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return apperror.NewCheckpointIO("save", m.key(rec.Sequence), err)
	}

	key := m.key(rec.Sequence)
	if err := m.provider.Set(ctx, key, raw, rec.TTL); err != nil {
		return apperror.NewCheckpointIO("save", key, err)
	}
	if err := m.appendManifest(ctx, rec.Sequence); err != nil {
		return err
	}
	return nil
}

// Clear removes every callback record and the manifest for this execution
// (used when an execution is cancelled or swept as expired).
func (m *CheckpointManager) Clear(ctx context.Context) error {
	seqs, err := m.loadManifest(ctx)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		key := m.key(seq)
		if err := m.provider.Delete(ctx, key); err != nil {
			return apperror.NewCheckpointIO("clear", key, err)
		}
	}
	if err := m.provider.Delete(ctx, m.manifestKey()); err != nil {
		return apperror.NewCheckpointIO("clear", m.manifestKey(), err)
	}
	return nil
}

func (m *CheckpointManager) loadManifest(ctx context.Context) ([]int64, error) {
	raw, err := m.provider.Get(ctx, m.manifestKey())
	if err == cache.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewCheckpointIO("load", m.manifestKey(), err)
	}
	var seqs []int64
	if err := json.Unmarshal(raw, &seqs); err != nil {
		return nil, apperror.NewCheckpointIO("load", m.manifestKey(), err)
	}
	return seqs, nil
}

func (m *CheckpointManager) appendManifest(ctx context.Context, seq int64) error {
	seqs, err := m.loadManifest(ctx)
	if err != nil {
		return err
	}
	for _, s := range seqs {
		if s == seq {
			return nil // invariant: a sequence is never rewritten within an execution
		}
	}
	seqs = append(seqs, seq)
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	raw, err := json.Marshal(seqs)
	if err != nil {
		return apperror.NewCheckpointIO("save", m.manifestKey(), err)
	}
	if err := m.provider.Set(ctx, m.manifestKey(), raw, 0); err != nil {
		return apperror.NewCheckpointIO("save", m.manifestKey(), err)
	}
	return nil
}
