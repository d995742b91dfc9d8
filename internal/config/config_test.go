package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/pedidos",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "7.8", cfg.Pricing.TaxSubstitutionPercent.String())
	require.Equal(t, "39", cfg.Pricing.DefaultMVA.String())
	require.False(t, cfg.Pricing.ScaleIPIByHalfInvoice)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":                   "postgres://localhost/pedidos",
		"REDIS_URL":                      "redis://localhost:6379",
		"PORT":                           "9090",
		"PRICING_IPI_PERCENT":            "10",
		"PRICING_IPI_SCALE_HALF_INVOICE": "true",
		"CATALOG_CACHE_TTL":              "90s",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "10", cfg.Pricing.IPIPercent.String())
	require.True(t, cfg.Pricing.ScaleIPIByHalfInvoice)
	require.Equal(t, "1m30s", cfg.CatalogCacheTTL.String())
}

func TestLoadMissingDatabase(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.Error(t, err)
}
