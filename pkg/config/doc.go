// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	ATENDI_HOST="0.0.0.0"
//	ATENDI_PORT="8080"
//	ATENDI_HEALTH_PORT="8081"
//	ATENDI_READ_TIMEOUT="30s"
//	ATENDI_WRITE_TIMEOUT="30s"
//	ATENDI_SHUTDOWN_TIMEOUT="30s"
//
// Auth settings:
//
//	ATENDI_POSTGRES_URL="postgres://localhost/atendi"
//	ATENDI_SESSION_TTL="720h"
//	ATENDI_SESSION_PURGE_SCHEDULE="0 * * * *"
//	ATENDI_OIDC_ISSUER_URL=""          # operator sign-in disabled when empty
//	ATENDI_OIDC_CLIENT_ID=""
//	ATENDI_OIDC_CLIENT_SECRET=""
//	ATENDI_OIDC_REDIRECT_URL=""
//
// Profile settings:
//
//	ATENDI_PROFILE_FETCH_TIMEOUT="3s"
//	ATENDI_REDIS_URL=""                # profile caching disabled when empty
//	ATENDI_REDIS_PASSWORD=""
//	ATENDI_PROFILE_CACHE_TTL="5m"
//
// Guard and provisioning settings:
//
//	ATENDI_GUARD_POLICY_PATH=""        # built-in policy when empty
//	ATENDI_PROVISIONING_URL=""         # admin provisioning disabled when empty
//	ATENDI_PROVISIONING_SERVICE_KEY=""
//
// Observability settings:
//
//	ATENDI_LOG_LEVEL="info"  # debug, info, warn, error
//	ATENDI_METRICS_ENABLED="true"
//	ATENDI_OTEL_ENABLED="false"
//	ATENDI_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Fetch timeout: %s\n", cfg.Profile.FetchTimeout)
//
// # Related Packages
//
//   - pkg/session: Uses the profile fetch timeout
//   - pkg/observability: Uses observability configuration
package config
