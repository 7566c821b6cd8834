package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsIntoEmptyDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Desk.LockWindow)
	assert.Equal(t, 60*time.Second, cfg.Desk.GateMaxAge)
	assert.Equal(t, 48, cfg.Desk.QuoteTTLHours)
	assert.Equal(t, 48*time.Hour, cfg.QuoteTTL())
	assert.Equal(t, 3.0, cfg.Pricing.MetalMarkupPercent["GOLD"])
	assert.Equal(t, 1.0, cfg.Pricing.FulfillmentAdjust["SHIP_TO_US"])
	assert.True(t, cfg.IsSimMode(), "sim mode is the default without credentials")

	// First load drops template files for the operator to fill in.
	for _, name := range []string{"config.toml", "credentials.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected template %s to be created: %v", name, err)
		}
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[desk]
lock_window = "15s"
quote_ttl_hours = 24

[exchange]
mode = "sim"
timeout = "10s"

[pricing.metal_markup_percent]
GOLD = 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Desk.LockWindow)
	assert.Equal(t, 24, cfg.Desk.QuoteTTLHours)
	assert.Equal(t, 10*time.Second, cfg.Exchange.Timeout)
	assert.Equal(t, 2.5, cfg.Pricing.MetalMarkupPercent["GOLD"])
}

func TestLoadCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	creds := `
[fiztrade]
account_id = "ACCT-9"
api_key = "key-abc"
api_secret = "secret-xyz"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ACCT-9", cfg.Credentials.FizTrade.AccountID)
	assert.Equal(t, "key-abc", cfg.Credentials.FizTrade.APIKey)
	assert.Equal(t, "secret-xyz", cfg.Credentials.FizTrade.APISecret)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FIZTRADE_ACCOUNT_ID", "ENV-ACCT")
	t.Setenv("FIZTRADE_API_KEY", "env-key")
	t.Setenv("EXCHANGE_MODE", "live")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ENV-ACCT", cfg.Credentials.FizTrade.AccountID)
	assert.Equal(t, "env-key", cfg.Credentials.FizTrade.APIKey)
	assert.Equal(t, "live", cfg.Exchange.Mode)
	assert.False(t, cfg.IsSimMode())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			Desk: DeskConfig{
				LockWindow:    20 * time.Second,
				GateMaxAge:    60 * time.Second,
				QuoteTTLHours: 48,
			},
			Exchange: ExchangeConfig{Mode: "sim"},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Exchange.Mode = "paper"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Desk.LockWindow = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Desk.QuoteTTLHours = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pricing.MetalMarkupPercent = map[string]float64{"GOLD": -1}
	assert.Error(t, cfg.Validate())
}
