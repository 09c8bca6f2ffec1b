package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/look4regev/agent-tool-protocol-sub003/internal/config"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/logger"
)

// Module wires the Execution State Manager and its expiry sweep into the fx
// graph, grounded on the teacher's domain/scheduler module (cron-driven
// lifecycle hooks) but reduced to the single periodic job this package needs.
var Module = fx.Module("engine",
	fx.Provide(NewStateManager),
	fx.Invoke(registerSweep),
)

// registerSweep schedules SweepExpired on a fixed cron cadence and ties the
// cron runner to the fx lifecycle, the same shape as the teacher's
// RegisterSchedulerLifecycle.
func registerSweep(lc fx.Lifecycle, sm *StateManager, cfg *config.Config, log *slog.Logger) {
	log = log.With(logger.Scope("engine.sweep"))
	c := cron.New()

	_, err := c.AddFunc("@every 1m", func() {
		swept := sm.SweepExpired(time.Now(), cfg.Engine.PauseTTL)
		if len(swept) > 0 {
			log.Info("swept expired paused executions", slog.Any("ids", swept))
		}
	})
	if err != nil {
		log.Error("failed to register expiry sweep", logger.Error(err))
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
}
