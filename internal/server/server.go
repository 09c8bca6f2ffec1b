// Package server provides the HTTP transport for the external interfaces
// (spec §6): Submit/Resume/Status/Cancel over echo/v4, following the
// teacher's internal/server Echo conventions.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/look4regev/agent-tool-protocol-sub003/internal/config"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/apperror"
	"github.com/look4regev/agent-tool-protocol-sub003/pkg/logger"
)

// Module provides the Echo instance, registers routes, and starts the HTTP
// server under the fx lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewEcho),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(StartServer),
)

// NewEcho builds the Echo instance with the teacher's middleware stack,
// trimmed to what a single-tenant program-execution API needs.
func NewEcho(cfg *config.Config, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOriginFunc: func(origin string) (bool, error) { return true, nil },
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}),
		middleware.RequestID(),
		middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/healthz"
			},
			LogURI: true, LogStatus: true, LogLatency: true, LogError: true, LogMethod: true, LogRequestID: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				attrs := []any{
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
					slog.String("request_id", v.RequestID),
				}
				if v.Error != nil {
					attrs = append(attrs, logger.Error(v.Error))
					log.Error("request failed", attrs...)
				} else {
					log.Info("request", attrs...)
				}
				return nil
			},
		}),
		middleware.RecoverWithConfig(middleware.RecoverConfig{
			LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
				log.Error("panic recovered", logger.Error(err), slog.String("stack", string(stack)))
				return nil
			},
		}),
	)

	return e
}

// StartServer starts the HTTP server with graceful shutdown tied to the fx
// lifecycle.
func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, log *slog.Logger) {
	log = log.With(logger.Scope("server"))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerAddress, cfg.ServerPort),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting HTTP server", slog.String("address", httpServer.Addr))
			go func() {
				if err := e.StartServer(httpServer); err != nil && err != http.ErrServerClosed {
					log.Error("server error", logger.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	})
}
