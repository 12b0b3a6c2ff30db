package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"trend-backtester/internal/types"
)

const validYAML = `
strategy:
  signal_symbol: QQQ
  trade_symbol: TQQQ
  sma_period: 200
  fixed_stop_pct: 10
  trailing_stop_pct: 20
  slippage_pct: 0.05
  tax_rate_pct: 25
  starting_capital: 100000
run:
  start_date: "2020-01-01"
  end_date: "2024-12-31"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy.Commission.Mode != "FLAT" {
		t.Errorf("expected default commission mode FLAT, got %s", cfg.Strategy.Commission.Mode)
	}
	if cfg.Data.Timezone != "America/New_York" {
		t.Errorf("expected default timezone, got %s", cfg.Data.Timezone)
	}
	if cfg.Data.SessionOpen != "09:30" || cfg.Data.SessionClose != "16:00" {
		t.Errorf("expected default session hours, got %s-%s", cfg.Data.SessionOpen, cfg.Data.SessionClose)
	}
	if cfg.Report.OutDir != "out" {
		t.Errorf("expected default out dir, got %s", cfg.Report.OutDir)
	}
	if cfg.Location() == nil {
		t.Error("expected resolvable location")
	}
}

func TestValidateRejectsBadParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing symbols", func(c *Config) { c.Strategy.SignalSymbol = "" }},
		{"zero sma period", func(c *Config) { c.Strategy.SMAPeriod = 0 }},
		{"negative fixed stop", func(c *Config) { c.Strategy.FixedStopPct = -1 }},
		{"fixed stop too large", func(c *Config) { c.Strategy.FixedStopPct = 100 }},
		{"zero trailing stop", func(c *Config) { c.Strategy.TrailingStopPct = 0 }},
		{"negative slippage", func(c *Config) { c.Strategy.SlippagePct = -0.01 }},
		{"bad commission mode", func(c *Config) { c.Strategy.Commission.Mode = "TIERED" }},
		{"negative commission", func(c *Config) { c.Strategy.Commission.Value = -1 }},
		{"tax rate at 100", func(c *Config) { c.Strategy.TaxRatePct = 100 }},
		{"zero capital", func(c *Config) { c.Strategy.StartingCapital = 0 }},
		{"bad start date", func(c *Config) { c.Run.StartDate = "01/02/2020" }},
		{"end before start", func(c *Config) { c.Run.EndDate = "2019-01-01" }},
		{"unknown timezone", func(c *Config) { c.Data.Timezone = "Mars/Olympus" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, validYAML))
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if !errors.Is(err, types.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
