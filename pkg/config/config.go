package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Profile       ProfileConfig
	Guard         GuardConfig
	Provisioning  ProvisioningConfig
	Observability ObservabilityConfig
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

// AuthConfig holds credential store and OIDC settings
type AuthConfig struct {
	PostgresURL   string
	SessionTTL    time.Duration
	PurgeSchedule string // cron expression for the expired-session purge

	OIDCIssuerURL    string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// ProfileConfig holds profile store and cache settings
type ProfileConfig struct {
	// FetchTimeout bounds how long a profile resolution may wait before
	// the state degrades. A tunable, default 3s.
	FetchTimeout time.Duration

	RedisURL      string
	RedisPassword string
	CacheTTL      time.Duration
}

// GuardConfig holds route guard settings
type GuardConfig struct {
	// PolicyPath optionally overrides the built-in route table with a
	// YAML policy file.
	PolicyPath string
}

// ProvisioningConfig holds the provisioning service boundary settings
type ProvisioningConfig struct {
	BaseURL    string
	ServiceKey string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("ATENDI_HOST", "0.0.0.0"),
			Port:            getEnv("ATENDI_PORT", "8080"),
			ReadTimeout:     getEnvDuration("ATENDI_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("ATENDI_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("ATENDI_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("ATENDI_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("ATENDI_HEALTH_PORT", "9090"),
		},
		Auth: AuthConfig{
			PostgresURL:      getEnv("ATENDI_POSTGRES_URL", ""),
			SessionTTL:       getEnvDuration("ATENDI_SESSION_TTL", 24*time.Hour),
			PurgeSchedule:    getEnv("ATENDI_SESSION_PURGE_SCHEDULE", "0 * * * *"),
			OIDCIssuerURL:    getEnv("ATENDI_OIDC_ISSUER_URL", ""),
			OIDCClientID:     getEnv("ATENDI_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("ATENDI_OIDC_CLIENT_SECRET", ""),
			OIDCRedirectURL:  getEnv("ATENDI_OIDC_REDIRECT_URL", ""),
		},
		Profile: ProfileConfig{
			FetchTimeout:  getEnvDuration("ATENDI_PROFILE_FETCH_TIMEOUT", 3*time.Second),
			RedisURL:      getEnv("ATENDI_REDIS_URL", ""),
			RedisPassword: getEnv("ATENDI_REDIS_PASSWORD", ""),
			CacheTTL:      getEnvDuration("ATENDI_PROFILE_CACHE_TTL", 5*time.Minute),
		},
		Guard: GuardConfig{
			PolicyPath: getEnv("ATENDI_GUARD_POLICY_PATH", ""),
		},
		Provisioning: ProvisioningConfig{
			BaseURL:    getEnv("ATENDI_PROVISIONING_URL", ""),
			ServiceKey: getEnv("ATENDI_PROVISIONING_SERVICE_KEY", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.ParseLogLevel(getEnv("ATENDI_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("ATENDI_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("ATENDI_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("ATENDI_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("ATENDI_OTEL_SERVICE_NAME", "atendi-console"),
			OTelServiceVersion: getEnv("ATENDI_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("ATENDI_OTEL_INSECURE", true),
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

	if c.Auth.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Profile.FetchTimeout <= 0 {
		return fmt.Errorf("profile fetch timeout must be positive")
	}

	if c.Auth.OIDCIssuerURL != "" {
		if c.Auth.OIDCClientID == "" || c.Auth.OIDCRedirectURL == "" {
			return fmt.Errorf("OIDC client ID and redirect URL are required when an issuer is set")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
	}
	return nil
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
