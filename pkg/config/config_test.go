package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CRM_DATABASE_URL", "postgres://localhost/crm?sslmode=disable")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 1024, cfg.Auth.TokenCacheSize)
	assert.Equal(t, "@hourly", cfg.Auth.TokenCleanupSchedule)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 1000, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CRM_DATABASE_URL", "postgres://db:5432/crm")
	t.Setenv("CRM_PORT", "8888")
	t.Setenv("CRM_LOG_LEVEL", "debug")
	t.Setenv("CRM_METRICS_ENABLED", "false")
	t.Setenv("CRM_DATABASE_MAX_CONNS", "50")
	t.Setenv("CRM_READ_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080", HealthPort: "9090"},
			Database:  DatabaseConfig{URL: "postgres://localhost/crm", MaxConns: 20, MinConns: 5},
			Auth:      AuthConfig{TokenCacheSize: 16},
			RateLimit: RateLimitConfig{RequestsPerMinute: 100},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing database URL", func(t *testing.T) {
		cfg := valid()
		cfg.Database.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("port collision", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HealthPort = cfg.Server.Port
		assert.Error(t, cfg.Validate())
	})

	t.Run("conn bounds inverted", func(t *testing.T) {
		cfg := valid()
		cfg.Database.MaxConns = 1
		assert.Error(t, cfg.Validate())
	})
}
