// Package logger provides the structured logger used across the engine.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the logger for fx-based wiring.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger builds the process-wide slog.Logger. Level is controlled by the
// LOG_LEVEL env var (debug|info|warn|warning|error, default info); GO_ENV=development
// forces debug regardless of LOG_LEVEL.
func NewLogger() *slog.Logger {
	level := levelFromEnv(os.Getenv("LOG_LEVEL"))
	if strings.EqualFold(os.Getenv("GO_ENV"), "development") {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

func levelFromEnv(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Scope tags a logger line with the subsystem that emitted it.
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Error attaches an error to a log line under the conventional "error" key.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
