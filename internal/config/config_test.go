package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "FMP_API_KEY", "DATA_PROVIDER", "HTTPS_PROXY",
		"ASSET_CLASS", "INSTRUMENTS", "HORIZON_VARIANT", "INITIAL_BALANCE", "CRON_REFRESH",
		"SQLITE_PATH", "DASHBOARD_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Account.InitialBalance)
	assert.Equal(t, "Forex", cfg.Market.AssetClass)
	assert.Equal(t, []string{"EURUSD=X", "USDJPY=X", "GBPUSD=X", "AUDUSD=X"}, cfg.Instruments())
	assert.Equal(t, []int{12, 24, 48}, cfg.Horizons())
	assert.Equal(t, 24, cfg.Forecast.TestHours)
	assert.Equal(t, 48, cfg.Forecast.SpanHours)
	assert.Equal(t, 2*time.Minute, cfg.Forecast.Timeout)
	assert.Equal(t, 48, cfg.Risk.VolatilityLookback)
	assert.Equal(t, 1.10, cfg.Risk.TakeProfitRatio)
	assert.Equal(t, "fmp", cfg.DataSource.Provider)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account:
  initial_balance: 5000
market:
  asset_class: Cryptocurrency
forecast:
  horizon_variant: B
  timeout: 30s
data_source:
  provider: mock
`), 0o644))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FMP_API_KEY=from-dotenv\n"), 0o644))
	t.Setenv("INITIAL_BALANCE", "2500")
	// godotenv never overrides a variable that is already present
	require.NoError(t, os.Unsetenv("FMP_API_KEY"))
	t.Cleanup(func() { os.Unsetenv("FMP_API_KEY") })

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2500.0, cfg.Account.InitialBalance)
	assert.Equal(t, []string{"BTC-USD", "ETH-USD", "DOT-USD", "LTC-USD"}, cfg.Instruments())
	assert.Equal(t, []int{8, 16, 24}, cfg.Horizons())
	assert.Equal(t, 30*time.Second, cfg.Forecast.Timeout)
	assert.Equal(t, "from-dotenv", cfg.DataSource.APIKey)
}

func TestLoad_ExplicitOverridesWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSTRUMENTS", "AAA, BBB,,")
	cfg, err := Load("", "")
	require.NoError(t, err)
	cfg.Forecast.Horizons = []int{6}

	assert.Equal(t, []string{"AAA", "BBB"}, cfg.Instruments())
	assert.Equal(t, []int{6}, cfg.Horizons())
}

func TestLoad_BadBalance(t *testing.T) {
	clearEnv(t)
	t.Setenv("INITIAL_BALANCE", "lots")
	_, err := Load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load("", "")
		require.NoError(t, err)
		cfg.DataSource.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with key", func(*Config) {}, true},
		{"missing fmp key", func(c *Config) { c.DataSource.APIKey = "" }, false},
		{"mock needs no key", func(c *Config) { c.DataSource.Provider = "mock"; c.DataSource.APIKey = "" }, true},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, false},
		{"unknown asset class", func(c *Config) { c.Market.AssetClass = "Bonds" }, false},
		{"instrument list skips asset class", func(c *Config) { c.Market.AssetClass = "Bonds"; c.Market.Instruments = []string{"X"} }, true},
		{"bad variant", func(c *Config) { c.Forecast.HorizonVariant = "C" }, false},
		{"negative horizon", func(c *Config) { c.Forecast.Horizons = []int{12, -1} }, false},
		{"non-positive balance", func(c *Config) { c.Account.InitialBalance = -1 }, false},
		{"ratio not above one", func(c *Config) { c.Risk.TakeProfitRatio = 1 }, false},
		{"telegram half configured", func(c *Config) { c.Telegram.BotToken = "t" }, false},
		{"telegram configured", func(c *Config) { c.Telegram.BotToken = "t"; c.Telegram.ChatID = "1" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
