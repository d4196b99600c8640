package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFillsDefaults(test *testing.T) {
	cfg := Config{}
	require.NoError(test, cfg.Validate())
	assert.Equal(test, ":9090", cfg.ListenAddr)
	assert.Equal(test, "sqlite:///tmp/billing.db", cfg.SlotURL)
	assert.Equal(test, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(test, 3*time.Second, cfg.OrderTimeout)
	assert.Equal(test, []string{"http://localhost:8000"}, cfg.AllowedOrigins)
	assert.Equal(test, "0.2", cfg.TaxRateDecimal().String())
	assert.True(test, cfg.LocalCreditsDecimal().IsZero())
}

func TestValidateRejectsBadSettings(test *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "tax rate not a number", cfg: Config{TaxRate: "twenty"}},
		{name: "tax rate above one", cfg: Config{TaxRate: "1.5"}},
		{name: "negative tax rate", cfg: Config{TaxRate: "-0.1"}},
		{name: "negative local credits", cfg: Config{LocalCredits: "-5"}},
		{name: "unknown slot scheme", cfg: Config{SlotURL: "mongodb://localhost/cart"}},
		{name: "negative slot ttl", cfg: Config{SlotTTL: -time.Second}},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			assert.Error(test, testCase.cfg.Validate())
		})
	}
}

func TestSlotScheme(test *testing.T) {
	testCases := map[string]string{
		"sqlite:///tmp/billing.db":       SlotSchemeSQLite,
		"/var/lib/billing.db":            SlotSchemeSQLite,
		"postgres://user@db/billing":     SlotSchemePostgres,
		"postgresql://user@db/billing":   SlotSchemePostgreSQL,
		"redis://localhost:6379/0":       SlotSchemeRedis,
		"rediss://cache.internal:6380/1": SlotSchemeRedisTLS,
		"file:///var/lib/billing/carts":  SlotSchemeFile,
	}
	for rawURL, want := range testCases {
		scheme, err := SlotScheme(rawURL)
		require.NoError(test, err, rawURL)
		assert.Equal(test, want, scheme, rawURL)
	}
	_, err := SlotScheme("  ")
	assert.Error(test, err)
}

func TestParseAllowedOrigins(test *testing.T) {
	assert.Equal(test, []string{"http://a", "https://b"}, ParseAllowedOrigins(" http://a, ,https://b "))
	assert.Empty(test, ParseAllowedOrigins(""))
}
