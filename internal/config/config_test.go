package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                "",
		"DATABASE_URL":        "",
		"REDIS_URL":           "",
		"RATE_LIMIT_STRATEGY": "",
		"PROMO_CACHE_TTL":     "",
		"SESSION_MAX_ITEMS":   "",
		"CURRENCY_CODE":       "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.Equal(t, 5*time.Minute, cfg.PromoCacheTTL)
	require.Equal(t, 500, cfg.MaxSessionItems)
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.False(t, cfg.PromotionStoreEnabled())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                  ":9090",
		"DATABASE_URL":          "postgres://localhost/prices",
		"CORS_ALLOWED_ORIGINS":  "https://a.test, ,https://b.test",
		"RATE_LIMIT_STRATEGY":   "Fixed",
		"RATE_LIMIT_MAX":        "10",
		"PROMO_CACHE_TTL":       "not-a-duration",
		"OBS_ENABLE_PROMETHEUS": "off",
		"CURRENCY_CODE":         "pab",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.PromotionStoreEnabled())
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
	require.Equal(t, 10, cfg.RateLimitMax)
	require.Equal(t, 5*time.Minute, cfg.PromoCacheTTL)
	require.False(t, cfg.Obs.MetricsEnabled)
	require.Equal(t, "PAB", cfg.CurrencyCode)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	_, err := LoadForTests(map[string]string{"RATE_LIMIT_STRATEGY": "leaky"})
	require.Error(t, err)
}
