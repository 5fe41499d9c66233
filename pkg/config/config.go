package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/epicevents/crm/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// AuthConfig holds token settings
type AuthConfig struct {
	TokenCacheSize       int
	TokenCleanupSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// RateLimitConfig holds rate limit settings
type RateLimitConfig struct {
	RequestsPerMinute int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CRM_HOST", "0.0.0.0"),
			Port:            getEnv("CRM_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CRM_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CRM_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CRM_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CRM_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CRM_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("CRM_DATABASE_URL", ""),
			MaxConns: getEnvInt("CRM_DATABASE_MAX_CONNS", 20),
			MinConns: getEnvInt("CRM_DATABASE_MIN_CONNS", 5),
			Timeout:  getEnvDuration("CRM_DATABASE_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			TokenCacheSize:       getEnvInt("CRM_TOKEN_CACHE_SIZE", 1024),
			TokenCleanupSchedule: getEnv("CRM_TOKEN_CLEANUP_SCHEDULE", "@hourly"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("CRM_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("CRM_METRICS_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("CRM_RATE_LIMIT_PER_MINUTE", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database max conns (%d) must be >= min conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Auth.TokenCacheSize < 0 {
		return fmt.Errorf("token cache size must not be negative")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "warning":
		return observability.WarnLevel
	default:
		return observability.ParseLogLevel(strings.ToLower(level))
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
