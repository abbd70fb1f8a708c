package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// InstrumentSpec is one catalog entry: the starting state of a simulated
// instrument.
type InstrumentSpec struct {
	Symbol string  `yaml:"symbol"`
	Name   string  `yaml:"name"`
	Price  float64 `yaml:"price"`
}

// Config holds all application configuration.
type Config struct {
	Market struct {
		TickInterval string           `yaml:"tick_interval"`
		Instruments  []InstrumentSpec `yaml:"instruments"`
	} `yaml:"market"`
	Account struct {
		InitialBalance float64 `yaml:"initial_balance"`
	} `yaml:"account"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
		DataDir    string `yaml:"data_dir"`
	} `yaml:"storage"`
}

// defaultCatalog seeds the market when the config lists no instruments.
var defaultCatalog = []InstrumentSpec{
	{Symbol: "RELI", Name: "Reliance Industries", Price: 2850.00},
	{Symbol: "TCS", Name: "TCS", Price: 3450.00},
	{Symbol: "INFY", Name: "Infosys", Price: 1450.50},
	{Symbol: "HDFCBANK", Name: "HDFC Bank", Price: 1590.45},
	{Symbol: "SBIN", Name: "State Bank of India", Price: 845.25},
	{Symbol: "ITC", Name: "ITC Ltd", Price: 470.35},
	{Symbol: "AIRTEL", Name: "Bharti Airtel", Price: 1030.25},
	{Symbol: "AAPL", Name: "Apple Inc.", Price: 150.00},
	{Symbol: "MSFT", Name: "Microsoft Corp", Price: 340.00},
	{Symbol: "AMZN", Name: "Amazon", Price: 130.00},
	{Symbol: "TSLA", Name: "Tesla Motors", Price: 220.00},
	{Symbol: "GOOG", Name: "Google (Alphabet)", Price: 125.00},
	{Symbol: "NVDA", Name: "NVIDIA Corp", Price: 900.00},
	{Symbol: "KO", Name: "Coca-Cola", Price: 58.00},
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is fine; defaults cover everything.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		cfg.Market.TickInterval = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		var bal float64
		if _, err := fmt.Sscanf(v, "%f", &bal); err == nil {
			cfg.Account.InitialBalance = bal
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	// Defaults
	if cfg.Market.TickInterval == "" {
		cfg.Market.TickInterval = "3s"
	}
	if len(cfg.Market.Instruments) == 0 {
		cfg.Market.Instruments = defaultCatalog
	}
	if cfg.Account.InitialBalance == 0 {
		cfg.Account.InitialBalance = 10000
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}

	return cfg, nil
}

// TickDuration parses the configured tick interval. Call Validate first.
func (c *Config) TickDuration() time.Duration {
	d, _ := time.ParseDuration(c.Market.TickInterval)
	return d
}

// Validate checks that all required fields are coherent.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Market.TickInterval)
	if err != nil {
		return fmt.Errorf("market.tick_interval %q: %w", c.Market.TickInterval, err)
	}
	if d < time.Second {
		return fmt.Errorf("market.tick_interval must be at least 1s, got %s", d)
	}
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	seen := make(map[string]bool)
	for _, in := range c.Market.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instrument with empty symbol")
		}
		if seen[in.Symbol] {
			return fmt.Errorf("instrument %s listed twice", in.Symbol)
		}
		seen[in.Symbol] = true
		if in.Price <= 0 {
			return fmt.Errorf("instrument %s price must be positive", in.Symbol)
		}
	}
	return nil
}
