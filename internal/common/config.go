package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the trifolio server
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Quotes   QuotesConfig   `toml:"quotes"`
	Policy   PolicyConfig   `toml:"policy"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port     int    `toml:"port"`
	APIToken string `toml:"api_token"`
}

// DatabaseConfig holds the postgres connection string. An empty string
// runs the server on the in-memory store (no persistence).
type DatabaseConfig struct {
	ConnString string `toml:"conn_string"`
}

// RedisConfig holds the optional quote-cache backend. An empty URL
// disables caching.
type RedisConfig struct {
	URL          string `toml:"url"`
	CacheTTLSecs int    `toml:"cache_ttl_seconds"`
}

// QuotesConfig holds quote/FX/sentiment provider settings
type QuotesConfig struct {
	BaseURL        string  `toml:"base_url"` // empty = default Yahoo endpoint
	TimeoutSecs    int     `toml:"timeout_seconds"`
	FallbackFXRate float64 `toml:"fallback_fx_rate"` // USD→TWD when the FX lookup fails
}

// PolicyConfig holds the fee defaulting rates and compliance thresholds
type PolicyConfig struct {
	FeeRatePercent     float64 `toml:"fee_rate_percent"`      // default 0.1425
	SellTaxRatePercent float64 `toml:"sell_tax_rate_percent"` // default 0.3
	StartMonth         string  `toml:"start_month"`           // "2026-01"
	MinMonthly         float64 `toml:"min_monthly"`           // conservative monthly floor, USD
	MaxLotteryPercent  float64 `toml:"max_lottery_percent"`   // lottery share cap
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file or overrides
// are present
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			APIToken: "dev-token",
		},
		Redis: RedisConfig{
			CacheTTLSecs: 300, // 5 minute quote cache
		},
		Quotes: QuotesConfig{
			TimeoutSecs:    10,
			FallbackFXRate: 31.5,
		},
		Policy: PolicyConfig{
			FeeRatePercent:     0.1425,
			SellTaxRatePercent: 0.3,
			StartMonth:         "2026-01",
			MinMonthly:         300,
			MaxLotteryPercent:  10,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads the TOML file at path (when it exists) over the defaults
// and then applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values with TRIFOLIO_* environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("TRIFOLIO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("TRIFOLIO_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("TRIFOLIO_DB_CONN_STR"); v != "" {
		c.Database.ConnString = v
	}
	if v := os.Getenv("TRIFOLIO_REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("TRIFOLIO_QUOTE_BASE_URL"); v != "" {
		c.Quotes.BaseURL = v
	}
	if v := os.Getenv("TRIFOLIO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// CacheTTL returns the quote cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSecs) * time.Second
}

// QuoteTimeout returns the quote client timeout as a duration
func (c *Config) QuoteTimeout() time.Duration {
	return time.Duration(c.Quotes.TimeoutSecs) * time.Second
}

// PolicyStartMonth parses the policy start month ("2006-01" layout)
func (c *Config) PolicyStartMonth() (time.Time, error) {
	t, err := time.Parse("2006-01", c.Policy.StartMonth)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid policy start_month %q: %w", c.Policy.StartMonth, err)
	}
	return t, nil
}
