package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	// General
	ShopsDir      string
	RespectRobots bool
	DelayProfile  string // "cautious", "normal", "aggressive"

	// Destination for landed-cost calculation
	DestinationCountry  string
	DestinationEU       bool
	Currency            string
	VATRate             decimal.Decimal
	CustomsThresholdEUR decimal.Decimal

	// Duty rates by goods group
	DutyClothing    decimal.Decimal
	DutyFootwear    decimal.Decimal
	DutyAccessories decimal.Decimal
	DutyDefault     decimal.Decimal

	// Exchange rates
	RatesURL string // optional live-rate API base URL

	// Fan-out
	MaxConcurrent int
	CallTimeout   int // seconds per shop call

	// Persistence
	DatabaseDSN string

	// Notifications
	ResendAPIKey string
	AlertFrom    string
	AlertTo      []string

	// HTTP server
	HTTPPort string
	APIKey   string

	// Proxy
	ProxyMode string // "custom", "direct"
	ProxyFile string // file with proxy list for custom mode
}

// DefaultConfig returns configuration with Swedish destination
// defaults.
func DefaultConfig() *Config {
	return &Config{
		ShopsDir:            "shops",
		RespectRobots:       true,
		DelayProfile:        "normal",
		DestinationCountry:  "SE",
		DestinationEU:       true,
		Currency:            "SEK",
		VATRate:             decimal.NewFromFloat(0.25),
		CustomsThresholdEUR: decimal.NewFromInt(150),
		DutyClothing:        decimal.NewFromFloat(0.12),
		DutyFootwear:        decimal.NewFromFloat(0.08),
		DutyAccessories:     decimal.NewFromFloat(0.04),
		DutyDefault:         decimal.NewFromFloat(0.05),
		MaxConcurrent:       5,
		CallTimeout:         30,
		ProxyMode:           "direct",
		HTTPPort:            "8080",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from
// environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("OUTFITSCOUT_SHOPS_DIR"); v != "" {
		c.ShopsDir = v
	}
	if v := os.Getenv("OUTFITSCOUT_RESPECT_ROBOTS"); v == "false" {
		c.RespectRobots = false
	}
	if v := os.Getenv("OUTFITSCOUT_DELAY_PROFILE"); v != "" {
		c.DelayProfile = v
	}
	if v := os.Getenv("OUTFITSCOUT_DEST_COUNTRY"); v != "" {
		c.DestinationCountry = strings.ToUpper(v)
	}
	if v := os.Getenv("OUTFITSCOUT_DEST_EU"); v == "false" {
		c.DestinationEU = false
	}
	if v := os.Getenv("OUTFITSCOUT_CURRENCY"); v != "" {
		c.Currency = strings.ToUpper(v)
	}
	if v := os.Getenv("OUTFITSCOUT_VAT_RATE"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.VATRate = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_CUSTOMS_THRESHOLD_EUR"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.CustomsThresholdEUR = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_DUTY_CLOTHING"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.DutyClothing = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_DUTY_FOOTWEAR"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.DutyFootwear = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_DUTY_ACCESSORIES"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.DutyAccessories = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_DUTY_DEFAULT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			c.DutyDefault = d
		}
	}
	if v := os.Getenv("OUTFITSCOUT_RATES_URL"); v != "" {
		c.RatesURL = v
	}
	if v := os.Getenv("OUTFITSCOUT_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("OUTFITSCOUT_CALL_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CallTimeout = n
		}
	}
	if v := os.Getenv("OUTFITSCOUT_DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.ResendAPIKey = v
	}
	if v := os.Getenv("OUTFITSCOUT_ALERT_FROM"); v != "" {
		c.AlertFrom = v
	}
	if v := os.Getenv("OUTFITSCOUT_ALERT_TO"); v != "" {
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				c.AlertTo = append(c.AlertTo, addr)
			}
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		c.HTTPPort = v
	}
	if v := os.Getenv("OUTFITSCOUT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("OUTFITSCOUT_PROXY_MODE"); v != "" {
		c.ProxyMode = v
	}
	if v := os.Getenv("OUTFITSCOUT_PROXIES"); v != "" {
		c.ProxyFile = v
	}
}
