package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trend-backtester/internal/types"
)

type Config struct {
	Strategy struct {
		SignalSymbol    string  `yaml:"signal_symbol"`
		TradeSymbol     string  `yaml:"trade_symbol"`
		SMAPeriod       int     `yaml:"sma_period"`
		FixedStopPct    float64 `yaml:"fixed_stop_pct"`
		TrailingStopPct float64 `yaml:"trailing_stop_pct"`
		SlippagePct     float64 `yaml:"slippage_pct"`
		Commission      struct {
			Mode  string  `yaml:"mode"` // FLAT or PCT
			Value float64 `yaml:"value"`
		} `yaml:"commission"`
		TaxRatePct      float64 `yaml:"tax_rate_pct"`
		StartingCapital float64 `yaml:"starting_capital"`
	} `yaml:"strategy"`
	Run struct {
		StartDate string `yaml:"start_date"` // YYYY-MM-DD, inclusive
		EndDate   string `yaml:"end_date"`   // YYYY-MM-DD, inclusive
	} `yaml:"run"`
	Data struct {
		CacheDir     string `yaml:"cache_dir"`
		Timezone     string `yaml:"timezone"`
		SessionOpen  string `yaml:"session_open"`  // HH:MM venue-local
		SessionClose string `yaml:"session_close"` // HH:MM venue-local
		Fetch        struct {
			Exchange string `yaml:"exchange"`
			Interval string `yaml:"interval"` // intraday candle interval, e.g. 15minute
		} `yaml:"fetch"`
	} `yaml:"data"`
	Report struct {
		OutDir       string `yaml:"out_dir"`
		ReferenceLog string `yaml:"reference_log"`
	} `yaml:"report"`
}

func (c *Config) Validate() error {
	s := &c.Strategy
	if s.SignalSymbol == "" || s.TradeSymbol == "" {
		return fmt.Errorf("%w: signal_symbol and trade_symbol are required", types.ErrInvalidParameter)
	}
	if s.SMAPeriod <= 0 {
		return fmt.Errorf("%w: sma_period must be positive, got %d", types.ErrInvalidParameter, s.SMAPeriod)
	}
	if s.FixedStopPct <= 0 || s.FixedStopPct >= 100 {
		return fmt.Errorf("%w: fixed_stop_pct must be in (0,100), got %.2f", types.ErrInvalidParameter, s.FixedStopPct)
	}
	if s.TrailingStopPct <= 0 || s.TrailingStopPct >= 100 {
		return fmt.Errorf("%w: trailing_stop_pct must be in (0,100), got %.2f", types.ErrInvalidParameter, s.TrailingStopPct)
	}
	if s.SlippagePct < 0 {
		return fmt.Errorf("%w: slippage_pct must be non-negative, got %.4f", types.ErrInvalidParameter, s.SlippagePct)
	}
	if s.Commission.Mode != "FLAT" && s.Commission.Mode != "PCT" {
		return fmt.Errorf("%w: commission.mode must be 'FLAT' or 'PCT', got '%s'", types.ErrInvalidParameter, s.Commission.Mode)
	}
	if s.Commission.Value < 0 {
		return fmt.Errorf("%w: commission.value must be non-negative, got %.4f", types.ErrInvalidParameter, s.Commission.Value)
	}
	if s.TaxRatePct < 0 || s.TaxRatePct >= 100 {
		return fmt.Errorf("%w: tax_rate_pct must be in [0,100), got %.2f", types.ErrInvalidParameter, s.TaxRatePct)
	}
	if s.StartingCapital <= 0 {
		return fmt.Errorf("%w: starting_capital must be positive, got %.2f", types.ErrInvalidParameter, s.StartingCapital)
	}
	for _, d := range []struct{ name, val string }{
		{"run.start_date", c.Run.StartDate},
		{"run.end_date", c.Run.EndDate},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.val); err != nil {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD, got '%s'", types.ErrInvalidParameter, d.name, d.val)
		}
	}
	if c.Run.StartDate != "" && c.Run.EndDate != "" && c.Run.EndDate < c.Run.StartDate {
		return fmt.Errorf("%w: run.end_date precedes run.start_date", types.ErrInvalidParameter)
	}
	if _, err := time.LoadLocation(c.Data.Timezone); err != nil {
		return fmt.Errorf("%w: data.timezone '%s' is unknown", types.ErrInvalidParameter, c.Data.Timezone)
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

	if c.Strategy.Commission.Mode == "" {
		c.Strategy.Commission.Mode = "FLAT"
	}
	if c.Data.CacheDir == "" {
		c.Data.CacheDir = "cache"
	}
	if c.Data.Timezone == "" {
		c.Data.Timezone = "America/New_York"
	}
	if c.Data.SessionOpen == "" {
		c.Data.SessionOpen = "09:30"
	}
	if c.Data.SessionClose == "" {
		c.Data.SessionClose = "16:00"
	}
	if c.Data.Fetch.Interval == "" {
		c.Data.Fetch.Interval = "15minute"
	}
	if c.Report.OutDir == "" {
		c.Report.OutDir = "out"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// Location resolves the configured venue time zone. Validate has already
// checked it loads.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Data.Timezone)
	return loc
}
