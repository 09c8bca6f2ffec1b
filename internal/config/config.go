// Package config loads process configuration from the environment, following
// the teacher's caarlos0/env struct-tag convention.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

// Module provides the Config for fx-based wiring.
var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration.
type Config struct {
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Database     DatabaseConfig
	Engine       EngineConfig
	CacheBackend CacheBackend `env:"ENGINE_CACHE_BACKEND" envDefault:"memory"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings for the durable
// cache provider (checkpoint store).
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"atp"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"atp"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// CacheBackend selects the durable checkpoint store: "memory" (default, for
// local development and tests) or "postgres".
type CacheBackend string

const (
	CacheBackendMemory   CacheBackend = "memory"
	CacheBackendPostgres CacheBackend = "postgres"
)

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// EngineConfig holds the default resumable-execution engine limits (spec §5,
// §3 "per-execution limits").
type EngineConfig struct {
	// DefaultWallClock bounds a single execution attempt (submit or resume).
	DefaultWallClock time.Duration `env:"ENGINE_DEFAULT_WALL_CLOCK" envDefault:"5m"`
	// DefaultMaxCallbacks caps how many runtime-API callbacks one execution
	// may raise across its whole lifetime.
	DefaultMaxCallbacks int `env:"ENGINE_DEFAULT_MAX_CALLBACKS" envDefault:"200"`
	// MaxLoopIterations is the infinite-loop guard cap (spec §5, §8 property 5).
	MaxLoopIterations int `env:"ENGINE_MAX_LOOP_ITERATIONS" envDefault:"10000"`
	// BatchSizeThreshold is the minimum element count before an eligible
	// array-method call site is rewritten to batchParallel (spec §4.H step 3).
	BatchSizeThreshold int `env:"ENGINE_BATCH_SIZE_THRESHOLD" envDefault:"2"`
	// CheckpointTTL is parsed from the environment but not read by the Sandbox
	// Executor, which writes Callback Records with no expiry.
	CheckpointTTL time.Duration `env:"ENGINE_CHECKPOINT_TTL" envDefault:"168h"`
	// PauseTTL is how long a paused Execution survives without a resume
	// before being swept to failed/expired (spec §3, §4.I).
	PauseTTL time.Duration `env:"ENGINE_PAUSE_TTL" envDefault:"24h"`
	// TransformCacheSize caps the in-process transform cache (spec §4.H step 7).
	TransformCacheSize int `env:"ENGINE_TRANSFORM_CACHE_SIZE" envDefault:"1024"`
	// CheckpointKeyPrefix namespaces cache keys (spec §3 "checkpoint-key prefix").
	CheckpointKeyPrefix string `env:"ENGINE_CHECKPOINT_PREFIX" envDefault:"atp"`
}

// NewConfig parses Config from the environment.
func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
