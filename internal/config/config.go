// Package config - Service Configuration
// Environment-driven settings with development defaults
package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sitesmith/internal/keys"
)

// Environment constants
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// AppConfig holds the runtime configuration of the service.
type AppConfig struct {
	// Server configuration
	Port        string
	Environment string

	// Provider configuration; empty values select the client defaults
	GeminiBaseURL string
	GeminiModel   string

	// HTTP surface
	EnableMetrics      bool
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads the service configuration from the environment.
func Load() *AppConfig {
	return &AppConfig{
		Port:               GetEnv("PORT", "8080"),
		Environment:        GetEnvironment(),
		GeminiBaseURL:      GetEnv("GEMINI_BASE_URL", ""),
		GeminiModel:        GetEnv("GEMINI_MODEL", ""),
		EnableMetrics:      GetEnv("ENABLE_METRICS", "true") == "true",
		RateLimitPerMinute: GetEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     GetEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// GetEnvironment determines the runtime environment, checking the common
// variable names for compatibility.
func GetEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env == "" {
		env = EnvDevelopment
	}
	return strings.ToLower(env)
}

// IsProductionEnvironment checks whether we run in production mode.
func IsProductionEnvironment() bool {
	env := GetEnvironment()
	return env == EnvProduction || env == "prod"
}

// GetEnv reads an environment variable with a fallback default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt reads an integer environment variable with a fallback default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ReportCredentials logs how the provider credential pool resolved at
// startup. Key material is masked; the service still starts with an empty
// pool and serves fallback content.
func ReportCredentials(pool *keys.Pool, log *zap.Logger) {
	if pool.Count() == 0 {
		log.Warn("no provider credentials configured; generation will serve fallback content",
			zap.String("hint", "set GEMINI_API_KEY_1..GEMINI_API_KEY_20 or GEMINI_API_KEY"))
		return
	}

	log.Info("provider credential pool loaded", zap.Int("size", pool.Count()))
	for i := 0; i < pool.Count(); i++ {
		cred := pool.At(i)
		slot := "fallback"
		if cred.Slot > 0 {
			slot = strconv.Itoa(cred.Slot)
		}
		log.Info("provider credential",
			zap.Int("index", i),
			zap.String("slot", slot),
			zap.String("key", keys.Mask(cred.Key)))
	}
}
