package sandbox

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/look4regev/agent-tool-protocol-sub003/domain/cache"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/engine"
	"github.com/look4regev/agent-tool-protocol-sub003/domain/transform"
	"github.com/look4regev/agent-tool-protocol-sub003/internal/config"
)

// Module provides the Sandbox Executor for fx-based wiring.
var Module = fx.Module("sandbox",
	fx.Provide(NewExecutorFromConfig),
)

// NewExecutorFromConfig builds an Executor from the process Config and its
// already-provided dependencies (StateManager, Cache Provider, Transformer).
func NewExecutorFromConfig(
	states *engine.StateManager,
	provider cache.Provider,
	transformer *transform.Transformer,
	log *slog.Logger,
	cfg *config.Config,
) *Executor {
	return NewExecutor(ExecutorConfig{
		States:              states,
		CacheProvider:       provider,
		Transformer:         transformer,
		Logger:              log,
		CheckpointPrefix:    cfg.Engine.CheckpointKeyPrefix,
		DefaultWallClock:    cfg.Engine.DefaultWallClock,
		DefaultMaxCallbacks: cfg.Engine.DefaultMaxCallbacks,
		DefaultMaxLoop:      cfg.Engine.MaxLoopIterations,
		BatchSizeThreshold:  cfg.Engine.BatchSizeThreshold,
	})
}
