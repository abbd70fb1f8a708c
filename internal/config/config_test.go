package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Market.TickInterval != "3s" {
		t.Errorf("expected default tick interval 3s, got %s", cfg.Market.TickInterval)
	}
	if cfg.TickDuration() != 3*time.Second {
		t.Errorf("expected 3s duration, got %s", cfg.TickDuration())
	}
	if len(cfg.Market.Instruments) == 0 {
		t.Error("expected built-in instrument catalog")
	}
	if cfg.Account.InitialBalance != 10000 {
		t.Errorf("expected default initial balance 10000, got %v", cfg.Account.InitialBalance)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
market:
  tick_interval: 5s
  instruments:
    - {symbol: X, name: Test Corp, price: 42.50}
account:
  initial_balance: 2500
storage:
  sqlite_path: /tmp/test.db
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TICK_INTERVAL", "10s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Market.TickInterval != "10s" {
		t.Errorf("env override lost, got %s", cfg.Market.TickInterval)
	}
	if len(cfg.Market.Instruments) != 1 || cfg.Market.Instruments[0].Symbol != "X" {
		t.Errorf("unexpected instruments: %+v", cfg.Market.Instruments)
	}
	if cfg.Account.InitialBalance != 2500 {
		t.Errorf("expected balance 2500, got %v", cfg.Account.InitialBalance)
	}
	if cfg.Storage.SQLitePath != "/tmp/test.db" {
		t.Errorf("unexpected sqlite path %s", cfg.Storage.SQLitePath)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
	}{
		{"bad interval", func(c *Config) { c.Market.TickInterval = "soon" }},
		{"sub-second interval", func(c *Config) { c.Market.TickInterval = "100ms" }},
		{"negative balance", func(c *Config) { c.Account.InitialBalance = -1 }},
		{"empty symbol", func(c *Config) { c.Market.Instruments[0].Symbol = "" }},
		{"duplicate symbol", func(c *Config) {
			c.Market.Instruments[1].Symbol = c.Market.Instruments[0].Symbol
		}},
		{"non-positive price", func(c *Config) { c.Market.Instruments[0].Price = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tc.mod(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
