// Package main is the entry point for the agent-tool-protocol execution
// server: Submit/Resume/Status/Cancel over HTTP for resumable Starlark
// programs.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/sandbox"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
	"github.com/look4regev/agent-tool-protocol-sub003/internal/config"
	"github.com/look4regev/agent-tool-protocol-sub003/internal/database"
	"github.com/look4regev/agent-tool-protocol-sub003/internal/server"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/logger"
)

func main() {
	// Load .env files if present (for local development). Load() won't
	// overwrite existing vars, Overload() will.
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cacheModule := cache.MemoryModule
	if cacheBackend() == config.CacheBackendPostgres {
		cacheModule = fx.Options(database.Module, cache.PostgresModule)
	}

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		logger.Module,
		config.Module,
		cacheModule,

		engine.Module,
		transform.Module,
		sandbox.Module,

		server.Module,
	).Run()
}

// cacheBackend peeks ENGINE_CACHE_BACKEND before the fx graph is built,
// since the choice of cache.MemoryModule vs cache.PostgresModule (and
// whether internal/database.Module needs to dial Postgres at all) has to be
// made before fx.New, not resolved lazily inside it.
func cacheBackend() config.CacheBackend {
	cfg, err := config.NewConfig()
	if err != nil {
		return config.CacheBackendMemory
	}
	return cfg.CacheBackend
}
