package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend names for the event bus and snapshot store.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the cellflow service.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"CELLFLOW_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"CELLFLOW_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Adapter backends
	EventBackend string `env:"CELLFLOW_EVENT_BACKEND" envDefault:"memory"`
	StoreBackend string `env:"CELLFLOW_STORE_BACKEND" envDefault:"memory"`

	// Redis configuration (used when a backend is "redis")
	Redis RedisConfig

	// Engine configuration
	Engine EngineConfig

	// Notebook configuration
	Notebook NotebookConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// EngineConfig holds evaluator configuration.
type EngineConfig struct {
	// PropagateErrors makes Evaluate fail fast on the first compute error
	// instead of containing it to the affected branch.
	PropagateErrors bool          `env:"CELLFLOW_PROPAGATE_ERRORS" envDefault:"false"`
	CellTimeout     time.Duration `env:"CELLFLOW_CELL_TIMEOUT" envDefault:"30s"`
}

// NotebookConfig holds demo notebook configuration.
type NotebookConfig struct {
	// ManifestPath points to a YAML slider manifest. Empty uses the
	// built-in defaults.
	ManifestPath string `env:"CELLFLOW_NOTEBOOK_MANIFEST"`
	Seed         int64  `env:"CELLFLOW_NOTEBOOK_SEED" envDefault:"42"`
}

// TimeoutConfig holds lifecycle timeouts.
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"CELLFLOW_TIMEOUT_SHUTDOWN" envDefault:"30s"`
	SnapshotTTL     time.Duration `env:"CELLFLOW_SNAPSHOT_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	validBackends := map[string]bool{
		BackendMemory: true,
		BackendRedis:  true,
	}
	if !validBackends[c.EventBackend] {
		return fmt.Errorf("invalid event backend: %s (must be memory or redis)", c.EventBackend)
	}
	if !validBackends[c.StoreBackend] {
		return fmt.Errorf("invalid store backend: %s (must be memory or redis)", c.StoreBackend)
	}
	if c.NeedsRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when a redis backend is selected")
	}

	if c.Engine.CellTimeout < 0 {
		return fmt.Errorf("cell timeout must not be negative")
	}
	if c.Notebook.Seed == 0 {
		return fmt.Errorf("notebook seed is required for deterministic evaluation")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// NeedsRedis reports whether any selected backend requires a Redis client.
func (c *Config) NeedsRedis() bool {
	return c.EventBackend == BackendRedis || c.StoreBackend == BackendRedis
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
