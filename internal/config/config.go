package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Asset classes with their instrument sets.
var AssetClasses = map[string][]string{
	"Forex":          {"EURUSD=X", "USDJPY=X", "GBPUSD=X", "AUDUSD=X"},
	"Commodities":    {"GC=F", "SI=F", "NG=F", "KC=F"},
	"Indices":        {"^GSPC", "^GDAXI", "^HSI", "000300.SS"},
	"Cryptocurrency": {"BTC-USD", "ETH-USD", "DOT-USD", "LTC-USD"},
}

// HorizonVariants are the selectable forecast horizon sets in hours.
var HorizonVariants = map[string][]int{
	"A": {12, 24, 48},
	"B": {8, 16, 24},
}

// Config holds all application configuration.
type Config struct {
	Account struct {
		InitialBalance float64 `yaml:"initial_balance"`
		StateFile      string  `yaml:"state_file"`
	} `yaml:"account"`
	Market struct {
		AssetClass  string   `yaml:"asset_class"`
		Instruments []string `yaml:"instruments"`
	} `yaml:"market"`
	Forecast struct {
		HorizonVariant string        `yaml:"horizon_variant"`
		Horizons       []int         `yaml:"horizons"`
		TestHours      int           `yaml:"test_hours"`
		SpanHours      int           `yaml:"span_hours"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"forecast"`
	Risk struct {
		VolatilityLookback int     `yaml:"volatility_lookback"`
		TakeProfitRatio    float64 `yaml:"take_profit_ratio"`
	} `yaml:"risk"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dashboard struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"dashboard"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults. Missing files are not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("ASSET_CLASS"); v != "" {
		c.Market.AssetClass = v
	}
	if v := os.Getenv("INSTRUMENTS"); v != "" {
		c.Market.Instruments = splitList(v)
	}
	if v := os.Getenv("HORIZON_VARIANT"); v != "" {
		c.Forecast.HorizonVariant = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("INITIAL_BALANCE: %w", err)
		}
		c.Account.InitialBalance = balance
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		c.Dashboard.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Account.InitialBalance == 0 {
		c.Account.InitialBalance = 10000
	}
	if c.Account.StateFile == "" {
		c.Account.StateFile = "data/account_state.json"
	}
	if c.Market.AssetClass == "" {
		c.Market.AssetClass = "Forex"
	}
	if c.Forecast.HorizonVariant == "" {
		c.Forecast.HorizonVariant = "A"
	}
	if c.Forecast.TestHours == 0 {
		c.Forecast.TestHours = 24
	}
	if c.Forecast.SpanHours == 0 {
		c.Forecast.SpanHours = 48
	}
	if c.Forecast.Timeout == 0 {
		c.Forecast.Timeout = 2 * time.Minute
	}
	if c.Risk.VolatilityLookback == 0 {
		c.Risk.VolatilityLookback = 48
	}
	if c.Risk.TakeProfitRatio == 0 {
		c.Risk.TakeProfitRatio = 1.10
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "fmp"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 5 * * * *"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trade_sentinel.db"
	}
	if c.Dashboard.ListenAddr == "" {
		c.Dashboard.ListenAddr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Instruments returns the explicit instrument list or the asset class set.
func (c *Config) Instruments() []string {
	if len(c.Market.Instruments) > 0 {
		return append([]string(nil), c.Market.Instruments...)
	}
	return append([]string(nil), AssetClasses[c.Market.AssetClass]...)
}

// Horizons returns the explicit horizons or the selected variant.
func (c *Config) Horizons() []int {
	if len(c.Forecast.Horizons) > 0 {
		return append([]int(nil), c.Forecast.Horizons...)
	}
	return append([]int(nil), HorizonVariants[c.Forecast.HorizonVariant]...)
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	if len(c.Market.Instruments) == 0 {
		if _, ok := AssetClasses[c.Market.AssetClass]; !ok {
			return fmt.Errorf("market.asset_class %q is not one of Forex, Commodities, Indices, Cryptocurrency", c.Market.AssetClass)
		}
	}
	if len(c.Forecast.Horizons) == 0 {
		if _, ok := HorizonVariants[c.Forecast.HorizonVariant]; !ok {
			return fmt.Errorf("forecast.horizon_variant %q must be A or B", c.Forecast.HorizonVariant)
		}
	}
	for _, h := range c.Forecast.Horizons {
		if h <= 0 {
			return fmt.Errorf("forecast.horizons must be positive, got %d", h)
		}
	}
	if c.Forecast.TestHours <= 0 || c.Forecast.SpanHours <= 0 {
		return fmt.Errorf("forecast.test_hours and forecast.span_hours must be positive")
	}
	if c.Risk.TakeProfitRatio <= 1 {
		return fmt.Errorf("risk.take_profit_ratio must be greater than 1")
	}
	switch c.DataSource.Provider {
	case "fmp":
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key (FMP_API_KEY) is required for the fmp provider")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider %q must be fmp, yahoo or mock", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
