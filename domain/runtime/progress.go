package runtime

import (
	"log/slog"

	"github.com/look4regev/agent-tool-protocol-sub003/pkg/logger"
)

// Reporter emits progress updates for a running Execution. It is the one
// Runtime API with no sequence number (spec §4.E): progress.report is
// fire-and-forget and must never participate in replay, so calling it twice
// on re-execution of the same code path is expected and harmless.
type Reporter struct {
	log         *slog.Logger
	executionID string
}

// NewReporter builds a Reporter scoped to one execution id.
func NewReporter(log *slog.Logger, executionID string) *Reporter {
	return &Reporter{log: log.With(logger.Scope("runtime.progress")), executionID: executionID}
}

// Report implements atp.progress.report.
func (r *Reporter) Report(message string, fields map[string]any) {
	r.log.Info("execution progress",
		slog.String("executionId", r.executionID),
		slog.String("message", message),
		slog.Any("fields", fields),
	)
}
