package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "GO_ENV", "ENV",
		"GEMINI_BASE_URL", "GEMINI_MODEL",
		"ENABLE_METRICS", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearServiceEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Empty(t, cfg.GeminiBaseURL)
	assert.Empty(t, cfg.GeminiModel)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
}

func TestGetEnvironmentFallbackChain(t *testing.T) {
	clearServiceEnv(t)

	t.Setenv("ENV", "staging")
	assert.Equal(t, "staging", GetEnvironment())

	t.Setenv("GO_ENV", "test")
	assert.Equal(t, "test", GetEnvironment(), "GO_ENV outranks ENV")

	t.Setenv("ENVIRONMENT", "PRODUCTION")
	assert.Equal(t, "production", GetEnvironment(), "ENVIRONMENT outranks the rest")
}

func TestIsProductionEnvironment(t *testing.T) {
	clearServiceEnv(t)

	assert.False(t, IsProductionEnvironment())

	t.Setenv("ENVIRONMENT", "prod")
	assert.True(t, IsProductionEnvironment())

	t.Setenv("ENVIRONMENT", "production")
	assert.True(t, IsProductionEnvironment())
}

func TestGetEnvInt(t *testing.T) {
	clearServiceEnv(t)

	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	assert.Equal(t, 120, GetEnvInt("RATE_LIMIT_PER_MINUTE", 120), "bad values fall back to the default")

	t.Setenv("RATE_LIMIT_PER_MINUTE", "45")
	assert.Equal(t, 45, GetEnvInt("RATE_LIMIT_PER_MINUTE", 120))
}
