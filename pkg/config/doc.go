// Package config provides application configuration management from
// environment variables.
//
// All settings carry sensible defaults; only the database URL is
// required.
//
// Server settings:
//
//	CRM_HOST="0.0.0.0"
//	CRM_PORT="8080"
//	CRM_HEALTH_PORT="9090"
//	CRM_READ_TIMEOUT="15s"
//	CRM_WRITE_TIMEOUT="15s"
//	CRM_IDLE_TIMEOUT="60s"
//	CRM_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	CRM_DATABASE_URL="postgres://localhost/crm?sslmode=disable"
//	CRM_DATABASE_MAX_CONNS="20"
//	CRM_DATABASE_MIN_CONNS="5"
//	CRM_DATABASE_TIMEOUT="30s"
//
// Auth settings:
//
//	CRM_TOKEN_CACHE_SIZE="1024"
//	CRM_TOKEN_CLEANUP_SCHEDULE="@hourly"
//
// Observability settings:
//
//	CRM_LOG_LEVEL="info"          # debug, info, warn, error
//	CRM_METRICS_ENABLED="true"
//
// Rate limit settings:
//
//	CRM_RATE_LIMIT_PER_MINUTE="1000"
package config
