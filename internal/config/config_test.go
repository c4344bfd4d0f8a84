package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.EventBackend)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.False(t, cfg.NeedsRedis())
	assert.False(t, cfg.Engine.PropagateErrors)
	assert.Equal(t, 30*time.Second, cfg.Engine.CellTimeout)
	assert.Equal(t, int64(42), cfg.Notebook.Seed)
	assert.Equal(t, 24*time.Hour, cfg.Timeouts.SnapshotTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CELLFLOW_HTTP_PORT", "9999")
	t.Setenv("CELLFLOW_EVENT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("CELLFLOW_PROPAGATE_ERRORS", "true")
	t.Setenv("CELLFLOW_CELL_TIMEOUT", "5s")
	t.Setenv("CELLFLOW_NOTEBOOK_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.EventBackend)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.True(t, cfg.NeedsRedis())
	assert.True(t, cfg.Engine.PropagateErrors)
	assert.Equal(t, 5*time.Second, cfg.Engine.CellTimeout)
	assert.Equal(t, int64(7), cfg.Notebook.Seed)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad http port",
			mutate:  func(c *Config) { c.HTTPPort = 0 },
			wantErr: "invalid HTTP port",
		},
		{
			name:    "bad grpc port",
			mutate:  func(c *Config) { c.GRPCPort = 70000 },
			wantErr: "invalid gRPC port",
		},
		{
			name:    "unknown event backend",
			mutate:  func(c *Config) { c.EventBackend = "kafka" },
			wantErr: "invalid event backend",
		},
		{
			name:    "unknown store backend",
			mutate:  func(c *Config) { c.StoreBackend = "postgres" },
			wantErr: "invalid store backend",
		},
		{
			name: "redis backend without addr",
			mutate: func(c *Config) {
				c.StoreBackend = BackendRedis
				c.Redis.Addr = ""
			},
			wantErr: "redis address is required",
		},
		{
			name:    "negative cell timeout",
			mutate:  func(c *Config) { c.Engine.CellTimeout = -time.Second },
			wantErr: "cell timeout",
		},
		{
			name:    "zero seed",
			mutate:  func(c *Config) { c.Notebook.Seed = 0 },
			wantErr: "seed",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddrHelpers(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}
