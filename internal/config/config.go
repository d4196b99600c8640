// Package config holds the runtime settings of billingd.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultListenAddr    = ":9090"
	defaultSlotURL       = "sqlite:///tmp/billing.db"
	defaultTaxRate       = "0.20"
	defaultSessionTTL    = 30 * time.Minute
	defaultOrderTimeout  = 3 * time.Second
	defaultAllowedOrigin = "http://localhost:8000"
	defaultOrderAddr     = "localhost:7070"

	SlotSchemeSQLite     = "sqlite"
	SlotSchemePostgres   = "postgres"
	SlotSchemePostgreSQL = "postgresql"
	SlotSchemeRedis      = "redis"
	SlotSchemeRedisTLS   = "rediss"
	SlotSchemeFile       = "file"
)

// Config aggregates runtime settings for billingd.
type Config struct {
	ListenAddr       string
	SlotURL          string
	SlotKey          string
	SlotTTL          time.Duration
	TaxRate          string
	SessionTTL       time.Duration
	OrderAddress     string
	OrderInsecure    bool
	OrderTimeout     time.Duration
	LocalOrderAPI    bool
	LocalCredits     string
	AllowedOrigins   []string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// Validate fills defaults and rejects settings billingd cannot run with.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.SlotURL = defaultIfEmpty(cfg.SlotURL, defaultSlotURL)
	cfg.TaxRate = defaultIfEmpty(cfg.TaxRate, defaultTaxRate)
	cfg.OrderAddress = defaultIfEmpty(cfg.OrderAddress, defaultOrderAddr)
	cfg.LocalCredits = defaultIfEmpty(cfg.LocalCredits, "0")
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = defaultOrderTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if cfg.SlotTTL < 0 {
		return fmt.Errorf("slot ttl must not be negative")
	}
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return fmt.Errorf("tax rate %q: %w", cfg.TaxRate, err)
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be between 0 and 1")
	}
	credits, err := decimal.NewFromString(cfg.LocalCredits)
	if err != nil || credits.IsNegative() {
		return fmt.Errorf("local credits %q must be a non-negative amount", cfg.LocalCredits)
	}
	if _, err := SlotScheme(cfg.SlotURL); err != nil {
		return err
	}
	return nil
}

// TaxRateDecimal returns the validated tax rate.
func (cfg Config) TaxRateDecimal() decimal.Decimal {
	return decimal.RequireFromString(cfg.TaxRate)
}

// LocalCreditsDecimal returns the starting wallet of the local order API.
func (cfg Config) LocalCreditsDecimal() decimal.Decimal {
	return decimal.RequireFromString(cfg.LocalCredits)
}

// SlotScheme returns the backend named by a slot URL. Bare paths select SQLite.
func SlotScheme(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("slot url is required")
	}
	if !strings.Contains(trimmed, "://") {
		return SlotSchemeSQLite, nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse slot url: %w", err)
	}
	switch parsed.Scheme {
	case SlotSchemeSQLite, SlotSchemePostgres, SlotSchemePostgreSQL, SlotSchemeRedis, SlotSchemeRedisTLS, SlotSchemeFile:
		return parsed.Scheme, nil
	default:
		return "", fmt.Errorf("unsupported slot scheme %q", parsed.Scheme)
	}
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
