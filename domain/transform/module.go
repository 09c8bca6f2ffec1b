package transform

import (
	"go.uber.org/fx"

	"github.com/look4regev/agent-tool-protocol-sub003/internal/config"
)

// Module provides the process-wide Transformer, sized from EngineConfig.
var Module = fx.Module("transform",
	fx.Provide(NewTransformerFromConfig),
)

// NewTransformerFromConfig builds a Transformer using the configured
// transform-cache size and batch-size threshold (spec §4.H steps 3, 7).
func NewTransformerFromConfig(cfg *config.Config) *Transformer {
	return NewTransformer(cfg.Engine.TransformCacheSize, cfg.Engine.BatchSizeThreshold)
}
