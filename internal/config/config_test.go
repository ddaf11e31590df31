package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BROKER_DEFAULT_PROVIDER", "BROKER_DEFAULT_MODEL", "BROKER_EXCHANGE_TIMEOUT", "BROKER_ALLOW_ANONYMOUS", "OTEL_ENABLED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "openAi", cfg.Broker.DefaultProvider)
	assert.Equal(t, "gpt-4", cfg.Broker.DefaultModel)
	assert.Equal(t, 120*time.Second, cfg.Broker.ExchangeTimeout)
	assert.True(t, cfg.Broker.AllowAnonymous)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BROKER_DEFAULT_PROVIDER", "anthropic")
	t.Setenv("BROKER_EXCHANGE_TIMEOUT", "45")
	t.Setenv("BROKER_ALLOW_ANONYMOUS", "false")
	t.Setenv("FACT_CACHE_TTL", "90s")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "anthropic", cfg.Broker.DefaultProvider)
	assert.Equal(t, 45*time.Second, cfg.Broker.ExchangeTimeout)
	assert.False(t, cfg.Broker.AllowAnonymous)
	assert.Equal(t, 90*time.Second, cfg.Broker.FactCacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))
}

func TestLoadAzureKeyNames(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	os.Unsetenv("AZURE_OPENAI_API_KEY")
	t.Setenv("AZURE_OPENAI_KEY", "legacy-key")

	assert.Equal(t, "legacy-key", Load().Providers.AzureKey)

	t.Setenv("AZURE_OPENAI_API_KEY", "current-key")
	assert.Equal(t, "current-key", Load().Providers.AzureKey)
}
