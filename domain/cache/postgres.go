package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// cacheRecord is the durable row backing PostgresProvider. Modeled after the
// teacher's bun entity conventions (internal/database, domain/agents/entity.go).
type cacheRecord struct {
	bun.BaseModel `bun:"table:atp_cache_entries,alias:ce"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	ExpiresAt *time.Time `bun:"expires_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PostgresProvider is the durable Cache Provider backed by Postgres via bun,
// satisfying spec §4.A's "must preserve values across process restarts"
// requirement for durable resume.
type PostgresProvider struct {
	db bun.IDB
}

// NewPostgresProvider wraps a bun database handle (either *bun.DB or a
// transaction) as a Cache Provider, bootstrapping its backing table if it
// doesn't already exist. The engine's own schema migration is intentionally
// this one `IfNotExists` call rather than a full migration tool: spec §1
// scopes schema/migration tooling to the out-of-scope transport layer, and a
// single append-only key/value table has no versions to migrate between.
func NewPostgresProvider(db bun.IDB) (*PostgresProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.NewCreateTable().Model((*cacheRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, err
	}
	return &PostgresProvider{db: db}, nil
}

func (p *PostgresProvider) Get(ctx context.Context, key string) ([]byte, error) {
	rec := new(cacheRecord)
	err := p.db.NewSelect().Model(rec).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.ExpiresAt != nil && time.Now().After(*rec.ExpiresAt) {
		_ = p.Delete(ctx, key)
		return nil, ErrNotFound
	}
	return rec.Value, nil
}

func (p *PostgresProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rec := &cacheRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		rec.ExpiresAt = &exp
	}
	_, err := p.db.NewInsert().
		Model(rec).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("expires_at = EXCLUDED.expires_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (p *PostgresProvider) Delete(ctx context.Context, key string) error {
	_, err := p.db.NewDelete().Model((*cacheRecord)(nil)).Where("key = ?", key).Exec(ctx)
	return err
}

func (p *PostgresProvider) Has(ctx context.Context, key string) (bool, error) {
	_, err := p.Get(ctx, key)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}
