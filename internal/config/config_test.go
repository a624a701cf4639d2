package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/shopdata/pkg/errorbank"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Generator.OutputDir)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, 100, cfg.Generator.Users)
	assert.Equal(t, 80, cfg.Generator.Products)
	assert.Equal(t, 250, cfg.Generator.Orders)
	assert.Equal(t, 5, cfg.Generator.MaxItemsPerOrder)
	assert.Equal(t, "data", cfg.Loader.InputDir)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:backend/ecommerce.db?_foreign_keys=on", cfg.Database.DSN)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("GEN_OUTPUT_DIR", "out")
	t.Setenv("GEN_SEED", "7")
	t.Setenv("GEN_USERS", "3")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("OBS_LOG_LEVEL", "DEBUG")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.Generator.OutputDir)
	assert.Equal(t, "out", cfg.Loader.InputDir)
	assert.Equal(t, uint64(7), cfg.Generator.Seed)
	assert.Equal(t, 3, cfg.Generator.Users)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no users", func(c *Config) { c.Generator.Users = 0 }},
		{"no products", func(c *Config) { c.Generator.Products = 0 }},
		{"negative orders", func(c *Config) { c.Generator.Orders = -1 }},
		{"zero max items", func(c *Config) { c.Generator.MaxItemsPerOrder = 0 }},
		{"empty output dir", func(c *Config) { c.Generator.OutputDir = " " }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"kafka without topic", func(c *Config) {
			c.Messaging.Enabled = true
			c.Messaging.Driver = "kafka"
			c.Messaging.Kafka.Topic = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New()
			require.NoError(t, err)

			tt.mutate(&cfg)
			assert.Error(t, cfg.Normalize())
		})
	}
}

func TestNew_InvalidEnvIsConfigError(t *testing.T) {
	t.Setenv("GEN_USERS", "0")

	_, err := New()
	require.Error(t, err)
	assert.True(t, errorbank.Is(err, errorbank.KindInvalidConfig))
	assert.Equal(t, 2, errorbank.From(err).ExitCode())
}
