package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Bullion Desk Configuration

[desk]
# Price lock reservation window granted by the exchange
lock_window = "20s"
# Maximum age of a cached market-status answer before re-checking
gate_max_age = "60s"
# How long a saved quote remains executable
quote_ttl_hours = 48
# SQLite database path (quotes, customers, trade ledger)
# database_path = "~/.config/bullion-desk/desk.db"

[pricing.metal_markup_percent]
# Retail spread over the exchange ask, per metal
GOLD = 3.0
SILVER = 5.0
PLATINUM = 4.0
PALLADIUM = 4.0

[pricing.fulfillment_adjust]
# Additional spread per fulfillment method
STORAGE = 0.0
DELIVERY = 0.5
SHIP_TO_US = 1.0

[exchange]
# Exchange mode: "live" or "sim"
mode = "sim"
base_url = "https://www.fiztrade.com/FizServices"
timeout = "30s"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"
`

const credentialsTemplate = `# Bullion Desk Credentials
# Keep this file private (chmod 600).

[fiztrade]
account_id = ""
api_key = ""
api_secret = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Restricted permissions: this file holds API secrets
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
