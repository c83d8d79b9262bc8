package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearedEnv(overrides map[string]string) map[string]string {
	env := map[string]string{
		"APP_ENV":                      "",
		"PORT":                         "",
		"DATABASE_URL":                 "",
		"REDIS_URL":                    "",
		"CORS_ALLOWED_ORIGINS":         "",
		"PRICING_RATES_FILE":           "",
		"PRICING_RATES_WATCH":          "",
		"CATALOG_CACHE_TTL":            "",
		"QUOTE_RATE_LIMIT":             "",
		"HTTP_MAX_BODY_BYTES":          "",
		"HTTP_SHUTDOWN_TIMEOUT":        "",
		"OBS_ENABLE_TRACING":           "",
		"OBS_ENABLE_PPROF":             "",
		"SECURE_PPROF_BASIC_AUTH_USER": "",
		"SECURE_PPROF_BASIC_AUTH_PASS": "",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(clearedEnv(nil))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.DatabaseURL)
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, "120-M", cfg.QuoteRateLimit)
	require.EqualValues(t, 64<<10, cfg.HTTPMaxBodyBytes)
	require.Equal(t, 15*time.Second, cfg.HTTPShutdownTimeout)
	require.False(t, cfg.RatesWatch)
	require.False(t, cfg.Obs.EnableTracing)
	require.True(t, cfg.Obs.EnablePrometheus)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(clearedEnv(map[string]string{
		"PORT":                  ":9090",
		"REDIS_URL":             "redis://localhost:6379/0",
		"CORS_ALLOWED_ORIGINS":  "https://shop.example, ,https://admin.example",
		"PRICING_RATES_FILE":    "/etc/printshop/rates.yaml",
		"PRICING_RATES_WATCH":   "yes",
		"CATALOG_CACHE_TTL":     "90s",
		"QUOTE_RATE_LIMIT":      "10-S",
		"HTTP_MAX_BODY_BYTES":   "2048",
		"HTTP_SHUTDOWN_TIMEOUT": "bogus",
	}))
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.AllowedOrigins())
	require.True(t, cfg.RatesWatch)
	require.Equal(t, 90*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, "10-S", cfg.QuoteRateLimit)
	require.EqualValues(t, 2048, cfg.HTTPMaxBodyBytes)
	require.Equal(t, 15*time.Second, cfg.HTTPShutdownTimeout, "invalid duration falls back")
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	_, err := LoadForTests(clearedEnv(map[string]string{"QUOTE_RATE_LIMIT": "lots"}))
	require.ErrorContains(t, err, "QUOTE_RATE_LIMIT")

	_, err = LoadForTests(clearedEnv(map[string]string{"PRICING_RATES_WATCH": "true"}))
	require.ErrorContains(t, err, "PRICING_RATES_FILE")

	_, err = LoadForTests(clearedEnv(map[string]string{"OBS_ENABLE_PPROF": "true"}))
	require.ErrorContains(t, err, "SECURE_PPROF_BASIC_AUTH_USER")

	_, err = LoadForTests(clearedEnv(map[string]string{
		"OBS_ENABLE_PPROF":             "true",
		"SECURE_PPROF_BASIC_AUTH_USER": "ops",
	}))
	require.ErrorContains(t, err, "SECURE_PPROF_BASIC_AUTH_PASS")

	_, err = LoadForTests(clearedEnv(map[string]string{"HTTP_MAX_BODY_BYTES": "-1"}))
	require.ErrorContains(t, err, "HTTP_MAX_BODY_BYTES")
}
