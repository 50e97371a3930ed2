package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	vars := map[string]string{
		"SMILE_PRIMARY__ENV":                    "local",
		"SMILE_SERVER__PORT":                    "4000",
		"SMILE_SERVER__READ_TIMEOUT":            "30",
		"SMILE_SERVER__WRITE_TIMEOUT":           "30",
		"SMILE_SERVER__IDLE_TIMEOUT":            "60",
		"SMILE_SERVER__CORS_ALLOWED_ORIGINS":    "https://dashboard.local,https://localhost:3006",
		"SMILE_DATABASE__HOST":                  "localhost",
		"SMILE_DATABASE__PORT":                  "5432",
		"SMILE_DATABASE__USER":                  "smile",
		"SMILE_DATABASE__PASSWORD":              "secret",
		"SMILE_DATABASE__NAME":                  "smile",
		"SMILE_DATABASE__SSL_MODE":              "disable",
		"SMILE_DATABASE__MAX_OPEN_CONNS":        "10",
		"SMILE_DATABASE__MAX_IDLE_CONNS":        "5",
		"SMILE_DATABASE__CONN_MAX_LIFETIME":     "300",
		"SMILE_DATABASE__CONN_MAX_IDLE_TIME":    "60",
		"SMILE_NEO4J__URI":                      "neo4j://localhost:7687",
		"SMILE_NEO4J__USERNAME":                 "neo4j",
		"SMILE_NEO4J__PASSWORD":                 "password",
		"SMILE_REDIS__ADDRESS":                  "localhost:6379",
		"SMILE_AUTH__SECRET_KEY":                "sk_test_123",
		"SMILE_OBSERVABILITY__LOGGING__LEVEL":   "debug",
		"SMILE_OBSERVABILITY__LOGGING__FORMAT":  "console",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Primary.Env)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://dashboard.local", "https://localhost:3006"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.False(t, cfg.Server.TLSEnabled())

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, "/graphql", cfg.Server.GraphQLPath)
		assert.Equal(t, "neo4j", cfg.Neo4j.Database)
		assert.Equal(t, 24*time.Hour, cfg.Oncotree.TTL)
		assert.Equal(t, "https://oncotree.mskcc.org", cfg.Oncotree.BaseURL)
		assert.Equal(t, "@daily", cfg.Oncotree.RefreshCron)
		assert.Equal(t, 30*time.Minute, cfg.Auth.SessionIdleTimeout)
		assert.False(t, cfg.Integration.BillingEmailsEnabled())
	})

	t.Run("observability is derived", func(t *testing.T) {
		require.NotNil(t, cfg.Observability)
		assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
		assert.Equal(t, "local", cfg.Observability.Environment)
		assert.Equal(t, "debug", cfg.Observability.Logging.Level)
		assert.Equal(t, "console", cfg.Observability.Logging.Format)
		assert.Equal(t, 5*time.Second, cfg.Observability.HealthChecks.Timeout)
	})
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMILE_NEO4J__URI", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URI")
}

func TestLoadConfigProductionRequiresTLS(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMILE_PRIMARY__ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tls")

	t.Setenv("SMILE_SERVER__TLS_CERT_FILE", "/etc/smile/cert.pem")
	t.Setenv("SMILE_SERVER__TLS_KEY_FILE", "/etc/smile/key.pem")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Server.TLSEnabled())
	assert.True(t, cfg.Observability.IsProduction())
}

func TestObservabilityValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ObservabilityConfig)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *ObservabilityConfig) {}},
		{
			name:    "bad level",
			mutate:  func(c *ObservabilityConfig) { c.Logging.Level = "inf" },
			wantErr: "invalid logging level",
		},
		{
			name:    "bad format",
			mutate:  func(c *ObservabilityConfig) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "negative slow query threshold",
			mutate:  func(c *ObservabilityConfig) { c.Logging.SlowQueryThreshold = -time.Second },
			wantErr: "slow_query_threshold",
		},
		{
			name:    "health check timeout too short",
			mutate:  func(c *ObservabilityConfig) { c.HealthChecks.Timeout = 10 * time.Millisecond },
			wantErr: "health_checks timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultObservabilityConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHealthCheckEnabled(t *testing.T) {
	c := DefaultObservabilityConfig()
	assert.True(t, c.HealthCheckEnabled("neo4j"))
	assert.False(t, c.HealthCheckEnabled("s3"))

	c.HealthChecks.Enabled = false
	assert.False(t, c.HealthCheckEnabled("neo4j"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.read_timeout", envKey("SMILE_SERVER__READ_TIMEOUT"))
	assert.Equal(t, "observability.new_relic.license_key", envKey("SMILE_OBSERVABILITY__NEW_RELIC__LICENSE_KEY"))
}

func TestEnvValueSplitsLists(t *testing.T) {
	key, value := envValue("SMILE_SERVER__CORS_ALLOWED_ORIGINS", " https://a.local, https://b.local ,")
	assert.Equal(t, "server.cors_allowed_origins", key)
	assert.Equal(t, []string{"https://a.local", "https://b.local"}, value)

	key, value = envValue("SMILE_SERVER__PORT", "4000")
	assert.Equal(t, "server.port", key)
	assert.Equal(t, "4000", value)
}

func TestLoadConfigLists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMILE_INTEGRATION__RESEND_API_KEY", "re_123")
	t.Setenv("SMILE_INTEGRATION__BILLING_NOTIFY_TO", "billing@mskcc.org,pm@mskcc.org")
	t.Setenv("SMILE_OBSERVABILITY__HEALTH_CHECKS__ENABLED", "true")
	t.Setenv("SMILE_OBSERVABILITY__HEALTH_CHECKS__CHECKS", "neo4j,redis")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"billing@mskcc.org", "pm@mskcc.org"}, cfg.Integration.BillingNotifyTo)
	assert.True(t, cfg.Integration.BillingEmailsEnabled())
	assert.Equal(t, []string{"neo4j", "redis"}, cfg.Observability.HealthChecks.Checks)
	assert.True(t, cfg.Observability.HealthCheckEnabled("neo4j"))
	assert.False(t, cfg.Observability.HealthCheckEnabled("database"))
}
