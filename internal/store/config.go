package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// ValidationError is a configuration error caught at the boundary, before
// any network call is made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return "config: " + e.msg }

func (e *ValidationError) Category() types.ErrorCategory { return types.CategoryConfig }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Config struct {
	Mode        string `yaml:"mode"`   // DRY_RUN or LIVE
	Symbol      string `yaml:"symbol"` // e.g. XAUUSD
	PollSeconds int    `yaml:"poll_seconds"`

	Risk struct {
		InvestmentUSD float64 `yaml:"investment_usd"`
		RiskPct       float64 `yaml:"risk_pct"`
		DefaultLots   float64 `yaml:"default_lots"`
	} `yaml:"risk"`

	Gateway struct {
		PriceTTLSeconds     int `yaml:"price_ttl_seconds"`
		NewsTTLSeconds      int `yaml:"news_ttl_seconds"`
		MinCallIntervalSecs int `yaml:"min_call_interval_seconds"`
		MaxDailyCalls       int `yaml:"max_daily_calls"`
	} `yaml:"gateway"`

	Providers struct {
		AlphaVantageKeyEnv string `yaml:"alpha_vantage_key_env"`
		GoldAPIKeyEnv      string `yaml:"gold_api_key_env"`
		FixerKeyEnv        string `yaml:"fixer_key_env"`
	} `yaml:"providers"`

	MT5 struct {
		FacadeURL   string  `yaml:"facade_url"`
		AccountEnv  string  `yaml:"account_env"`
		PasswordEnv string  `yaml:"password_env"`
		ServerEnv   string  `yaml:"server_env"`
		AutoTrade   bool    `yaml:"auto_trade"`
		Deviation   int     `yaml:"deviation"`
		Magic       int     `yaml:"magic"`
		MinLot      float64 `yaml:"min_lot"`
	} `yaml:"mt5"`

	Schedule struct {
		Timezones   []string `yaml:"timezones"`
		WindowStart string   `yaml:"window_start"` // local HH:MM
		WindowEnd   string   `yaml:"window_end"`
	} `yaml:"schedule"`

	// PipValues maps instrument to USD value of one pip per full lot.
	PipValues map[string]float64 `yaml:"pip_values"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return validationErrorf("invalid mode %q: must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Symbol == "" {
		return validationErrorf("symbol cannot be empty")
	}
	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 100 {
		return validationErrorf("risk.risk_pct must be between 0-100, got %.2f", c.Risk.RiskPct)
	}
	if c.Risk.InvestmentUSD < 0 {
		return validationErrorf("risk.investment_usd cannot be negative")
	}
	if c.Gateway.MaxDailyCalls <= 0 {
		return validationErrorf("gateway.max_daily_calls must be positive, got %d", c.Gateway.MaxDailyCalls)
	}
	for _, tz := range c.Schedule.Timezones {
		if _, err := time.LoadLocation(tz); err != nil {
			return validationErrorf("unparsable timezone %q: %v", tz, err)
		}
	}
	for _, w := range []string{c.Schedule.WindowStart, c.Schedule.WindowEnd} {
		if _, err := time.Parse("15:04", w); err != nil {
			return validationErrorf("invalid schedule window time %q: must be HH:MM", w)
		}
	}
	if c.MT5.MinLot <= 0 {
		return validationErrorf("mt5.min_lot must be positive, got %.2f", c.MT5.MinLot)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "XAUUSD"
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.Gateway.PriceTTLSeconds == 0 {
		c.Gateway.PriceTTLSeconds = 600 // 10 minutes
	}
	if c.Gateway.NewsTTLSeconds == 0 {
		c.Gateway.NewsTTLSeconds = 3600 // 60 minutes
	}
	if c.Gateway.MinCallIntervalSecs == 0 {
		c.Gateway.MinCallIntervalSecs = 2
	}
	if c.Gateway.MaxDailyCalls == 0 {
		c.Gateway.MaxDailyCalls = 20 // stay under the 25/day free tier
	}
	if c.Providers.AlphaVantageKeyEnv == "" {
		c.Providers.AlphaVantageKeyEnv = "ALPHA_VANTAGE_API_KEY"
	}
	if c.Providers.GoldAPIKeyEnv == "" {
		c.Providers.GoldAPIKeyEnv = "GOLD_API_KEY"
	}
	if c.Providers.FixerKeyEnv == "" {
		c.Providers.FixerKeyEnv = "FIXER_API_KEY"
	}
	if c.MT5.FacadeURL == "" {
		c.MT5.FacadeURL = "http://127.0.0.1:8000"
	}
	if c.MT5.AccountEnv == "" {
		c.MT5.AccountEnv = "MT5_ACCOUNT"
	}
	if c.MT5.PasswordEnv == "" {
		c.MT5.PasswordEnv = "MT5_PASSWORD"
	}
	if c.MT5.ServerEnv == "" {
		c.MT5.ServerEnv = "MT5_SERVER"
	}
	if c.MT5.Deviation == 0 {
		c.MT5.Deviation = 20
	}
	if c.MT5.Magic == 0 {
		c.MT5.Magic = 12345
	}
	if c.MT5.MinLot == 0 {
		c.MT5.MinLot = 0.01
	}
	if c.Risk.RiskPct == 0 {
		c.Risk.RiskPct = 1.0
	}
	if c.Risk.DefaultLots == 0 {
		c.Risk.DefaultLots = 0.01
	}
	if len(c.Schedule.Timezones) == 0 {
		c.Schedule.Timezones = []string{"UTC"}
	}
	if c.Schedule.WindowStart == "" {
		c.Schedule.WindowStart = "05:00"
	}
	if c.Schedule.WindowEnd == "" {
		c.Schedule.WindowEnd = "08:00"
	}
	if c.PipValues == nil {
		c.PipValues = map[string]float64{}
	}
}

// ProviderKeys holds resolved API keys. An empty key disables its provider.
type ProviderKeys struct {
	AlphaVantage string
	GoldAPI      string
	Fixer        string
}

// Keys resolves provider API keys from the environment variables the config
// names.
func (c *Config) Keys() ProviderKeys {
	return ProviderKeys{
		AlphaVantage: os.Getenv(c.Providers.AlphaVantageKeyEnv),
		GoldAPI:      os.Getenv(c.Providers.GoldAPIKeyEnv),
		Fixer:        os.Getenv(c.Providers.FixerKeyEnv),
	}
}
