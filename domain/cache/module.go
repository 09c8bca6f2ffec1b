package cache

import (
	"go.uber.org/fx"
)

// MemoryModule provides the in-memory Cache Provider, for local development
// and tests where ENGINE_CACHE_BACKEND=memory (the default).
var MemoryModule = fx.Module("cache",
	fx.Provide(func() Provider { return NewMemoryProvider() }),
)

// PostgresModule provides the durable Postgres-backed Cache Provider and
// requires internal/database.Module to also be wired for its bun.IDB
// dependency (spec §4.A: durable resume survives process restarts).
var PostgresModule = fx.Module("cache",
	fx.Provide(
		fx.Annotate(
			NewPostgresProvider,
			fx.As(new(Provider)),
		),
	),
)
