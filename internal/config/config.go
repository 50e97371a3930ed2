// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so the gateway fails fast on bad or missing config.
//
// Keys use the SMILE_ prefix and a double underscore for nesting:
//
//	SMILE_SERVER__PORT        -> server.port        -> Config.Server.Port
//	SMILE_NEO4J__URI          -> neo4j.uri          -> Config.Neo4j.URI
//	SMILE_ONCOTREE__TTL=24h   -> oncotree.ttl       -> Config.Oncotree.TTL
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process environment before
	// any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every gateway environment variable carries.
const EnvPrefix = "SMILE_"

// ServiceName tags logs, traces and metrics.
const ServiceName = "smile-dashboard-gateway"

// Config is the root configuration object for the gateway.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Neo4j         Neo4jConfig          `koanf:"neo4j" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Oncotree      OncotreeConfig       `koanf:"oncotree"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTPS server runtime.
//
// Timeouts are whole seconds. When both TLS files are set the server speaks
// HTTPS only; leaving them empty is allowed outside production.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	TLSCertFile        string   `koanf:"tls_cert_file" validate:"required_with=TLSKeyFile"`
	TLSKeyFile         string   `koanf:"tls_key_file" validate:"required_with=TLSCertFile"`
	GraphQLPath        string   `koanf:"graphql_path"`
	EnablePlayground   bool     `koanf:"enable_playground"`
	// RateLimit is the sustained number of requests per second allowed per
	// client IP. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
}

// TLSEnabled reports whether both key and certificate are configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning
// for the relational half of the merged schema.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// Neo4jConfig contains the graph database connection used by the graph
// half of the merged schema.
type Neo4jConfig struct {
	URI      string `koanf:"uri" validate:"required"`
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password" validate:"required"`
	Database string `koanf:"database"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores authentication-related secrets and session tuning.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
	// SessionIdleTimeout is how long a user counts as active after their
	// last request.
	SessionIdleTimeout time.Duration `koanf:"session_idle_timeout"`
}

// OncotreeConfig controls the cached Oncotree taxonomy.
type OncotreeConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"omitempty,url"`
	TTL         time.Duration `koanf:"ttl"`
	RefreshCron string        `koanf:"refresh_cron"`
}

// IntegrationConfig holds third-party integrations that are optional.
// Billing notifications are only sent when both the API key and at least
// one recipient are set.
type IntegrationConfig struct {
	ResendAPIKey     string   `koanf:"resend_api_key"`
	EmailFrom        string   `koanf:"email_from"`
	BillingNotifyTo  []string `koanf:"billing_notify_to" validate:"omitempty,dive,email"`
	DashboardBaseURL string   `koanf:"dashboard_base_url"`
}

// BillingEmailsEnabled reports whether billing notifications can be sent.
func (i IntegrationConfig) BillingEmailsEnabled() bool {
	return i.ResendAPIKey != "" && len(i.BillingNotifyTo) > 0
}

// envKey converts an environment variable name into a koanf key path.
//
//	SMILE_SERVER__READ_TIMEOUT -> server.read_timeout
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// listKeys are the keys whose values are comma separated lists.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"integration.billing_notify_to":      true,
	"observability.health_checks.checks": true,
}

// envValue maps an environment variable onto its koanf key and value,
// splitting list keys on commas.
//
//	SMILE_SERVER__CORS_ALLOWED_ORIGINS=a,b -> server.cors_allowed_origins = [a b]
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}

	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults and returns the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	mainConfig.applyDefaults()

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	if mainConfig.Observability.IsProduction() && !mainConfig.Server.TLSEnabled() {
		return nil, fmt.Errorf("server tls_cert_file and tls_key_file are required in production")
	}

	return mainConfig, nil
}

// applyDefaults fills optional settings. Service name and environment on
// the observability block are always derived, never configured.
func (c *Config) applyDefaults() {
	defaults := DefaultObservabilityConfig()
	if c.Observability == nil {
		c.Observability = defaults
	} else {
		// A partially configured block only overrides what it sets.
		if c.Observability.Logging.Level == "" {
			c.Observability.Logging.Level = defaults.Logging.Level
		}
		if c.Observability.Logging.Format == "" {
			c.Observability.Logging.Format = defaults.Logging.Format
		}
		if c.Observability.HealthChecks.Timeout == 0 {
			c.Observability.HealthChecks.Timeout = defaults.HealthChecks.Timeout
		}
		if len(c.Observability.HealthChecks.Checks) == 0 {
			c.Observability.HealthChecks.Checks = defaults.HealthChecks.Checks
		}
	}
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env
	if c.Server.GraphQLPath == "" {
		c.Server.GraphQLPath = "/graphql"
	}
	if c.Neo4j.Database == "" {
		c.Neo4j.Database = "neo4j"
	}
	if c.Auth.SessionIdleTimeout <= 0 {
		c.Auth.SessionIdleTimeout = 30 * time.Minute
	}
	if c.Oncotree.BaseURL == "" {
		c.Oncotree.BaseURL = "https://oncotree.mskcc.org"
	}
	if c.Oncotree.TTL <= 0 {
		c.Oncotree.TTL = 24 * time.Hour
	}
	if c.Oncotree.RefreshCron == "" {
		c.Oncotree.RefreshCron = "@daily"
	}
	if c.Integration.EmailFrom == "" {
		c.Integration.EmailFrom = "SMILE Dashboard <noreply@smile.local>"
	}
}
