// Package config provides configuration management for the trading desk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Desk        DeskConfig     `mapstructure:"desk"`
	Pricing     PricingConfig  `mapstructure:"pricing"`
	Exchange    ExchangeConfig `mapstructure:"exchange"`
	UI          UIConfig       `mapstructure:"ui"`
	Credentials Credentials    `mapstructure:"-" json:"-"` // Loaded separately, never serialized
}

// DeskConfig holds trading-desk behavior configuration.
type DeskConfig struct {
	LockWindow    time.Duration `mapstructure:"lock_window"`     // price reservation window
	GateMaxAge    time.Duration `mapstructure:"gate_max_age"`    // market status cache tolerance
	QuoteTTLHours int           `mapstructure:"quote_ttl_hours"` // deferred quote expiry
	DatabasePath  string        `mapstructure:"database_path"`
}

// PricingConfig holds the retail markup schedule.
// Percentages are keyed by metal, with a per-fulfillment-method adjustment.
type PricingConfig struct {
	MetalMarkupPercent map[string]float64 `mapstructure:"metal_markup_percent"`
	FulfillmentAdjust  map[string]float64 `mapstructure:"fulfillment_adjust"`
}

// ExchangeConfig holds wholesale exchange connection configuration.
type ExchangeConfig struct {
	Mode    string        `mapstructure:"mode"` // "live", "sim"
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// Credentials holds API credentials.
type Credentials struct {
	FizTrade FizTradeCredentials `mapstructure:"fiztrade"`
}

// FizTradeCredentials holds FizTrade API credentials.
type FizTradeCredentials struct {
	AccountID string `mapstructure:"account_id"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/bullion-desk"
	}
	return filepath.Join(home, ".config", "bullion-desk")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template and continue on defaults
			if terr := createTemplateConfig(configDir, name); terr != nil {
				return terr
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("desk.lock_window", "20s")
	v.SetDefault("desk.gate_max_age", "60s")
	v.SetDefault("desk.quote_ttl_hours", 48)
	v.SetDefault("desk.database_path", filepath.Join(configDir, "desk.db"))

	v.SetDefault("pricing.metal_markup_percent", map[string]float64{
		"GOLD":      3.0,
		"SILVER":    5.0,
		"PLATINUM":  4.0,
		"PALLADIUM": 4.0,
	})
	v.SetDefault("pricing.fulfillment_adjust", map[string]float64{
		"STORAGE":    0.0,
		"DELIVERY":   0.5,
		"SHIP_TO_US": 1.0,
	})

	v.SetDefault("exchange.mode", "sim")
	v.SetDefault("exchange.base_url", "https://www.fiztrade.com/FizServices")
	v.SetDefault("exchange.timeout", "30s")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FIZTRADE_ACCOUNT_ID"); v != "" {
		cfg.Credentials.FizTrade.AccountID = v
	}
	if v := os.Getenv("FIZTRADE_API_KEY"); v != "" {
		cfg.Credentials.FizTrade.APIKey = v
	}
	if v := os.Getenv("FIZTRADE_API_SECRET"); v != "" {
		cfg.Credentials.FizTrade.APISecret = v
	}
	if v := os.Getenv("EXCHANGE_MODE"); v != "" {
		cfg.Exchange.Mode = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Exchange.Mode != "" && c.Exchange.Mode != "live" && c.Exchange.Mode != "sim" {
		return fmt.Errorf("invalid exchange mode: %s (must be 'live' or 'sim')", c.Exchange.Mode)
	}

	if c.Desk.LockWindow <= 0 {
		return fmt.Errorf("lock_window must be positive")
	}
	if c.Desk.GateMaxAge <= 0 {
		return fmt.Errorf("gate_max_age must be positive")
	}
	if c.Desk.QuoteTTLHours <= 0 {
		return fmt.Errorf("quote_ttl_hours must be positive")
	}

	for metal, pct := range c.Pricing.MetalMarkupPercent {
		if pct < 0 {
			return fmt.Errorf("markup percent for %s must be non-negative", metal)
		}
	}

	return nil
}

// QuoteTTL returns the configured quote expiry as a duration.
func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.Desk.QuoteTTLHours) * time.Hour
}

// IsSimMode returns true if the simulated exchange is enabled.
func (c *Config) IsSimMode() bool {
	return c.Exchange.Mode == "sim"
}
