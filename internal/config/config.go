package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AllocationLine is one ticker/weight row of the configured allocation
// request. Order matters: plans preserve it.
type AllocationLine struct {
	Ticker string  `yaml:"ticker"`
	Weight float64 `yaml:"weight"`
}

// Config drives the CLI: which symbols to fetch, how to backtest them and
// how to allocate the budget. Zero values fall back to defaults.
type Config struct {
	Symbols  []string `yaml:"symbols"`
	Range    string   `yaml:"range"`
	Interval string   `yaml:"interval"`

	Backtest struct {
		FastWindow int `yaml:"fast_window"`
		SlowWindow int `yaml:"slow_window"`
	} `yaml:"backtest"`

	PeriodsPerYear float64 `yaml:"periods_per_year"`
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
	VaRConfidence  float64 `yaml:"var_confidence"`

	Budget     float64          `yaml:"budget"`
	Allocation []AllocationLine `yaml:"allocation"`

	CacheTTL    string `yaml:"cache_ttl"`
	HTTPTimeout string `yaml:"http_timeout"`
	OutputDir   string `yaml:"output_dir"`

	cacheTTL    time.Duration
	httpTimeout time.Duration
}

// Default returns the built-in configuration: VTI/VXUS/BND 60/30/10
// over a 10k budget, one year of daily bars, 20/50 crossover, 95% VaR.
func Default() Config {
	var c Config
	c.Symbols = []string{"VTI", "VXUS", "BND"}
	c.Range = "1y"
	c.Interval = "1d"
	c.Backtest.FastWindow = 20
	c.Backtest.SlowWindow = 50
	c.PeriodsPerYear = 252
	c.VaRConfidence = 0.95
	c.Budget = 10000
	c.Allocation = []AllocationLine{
		{Ticker: "VTI", Weight: 0.6},
		{Ticker: "VXUS", Weight: 0.3},
		{Ticker: "BND", Weight: 0.1},
	}
	c.CacheTTL = "60s"
	c.HTTPTimeout = "10s"
	c.OutputDir = "."
	c.cacheTTL = 60 * time.Second
	c.httpTimeout = 10 * time.Second
	return c
}

// Load reads a YAML config over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// applyEnv overlays environment overrides on top of file/default values.
// Only operational knobs are exposed this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("TICKERLAB_CACHE_TTL"); v != "" {
		c.CacheTTL = v
	}
	if v := os.Getenv("TICKERLAB_HTTP_TIMEOUT"); v != "" {
		c.HTTPTimeout = v
	}
	if v := os.Getenv("TICKERLAB_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
}

// Validate performs basic configuration validation and parses the duration
// fields. The backtest package re-validates window ordering; this is the
// early report at startup.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Backtest.FastWindow >= c.Backtest.SlowWindow {
		return fmt.Errorf("backtest fast_window (%d) must be shorter than slow_window (%d)", c.Backtest.FastWindow, c.Backtest.SlowWindow)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods_per_year must be positive")
	}
	if c.VaRConfidence <= 0 || c.VaRConfidence >= 1 {
		return fmt.Errorf("var_confidence must be in (0,1), got %v", c.VaRConfidence)
	}
	if c.Budget < 0 {
		return fmt.Errorf("budget must be >= 0, got %v", c.Budget)
	}
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	timeout, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return fmt.Errorf("invalid http_timeout: %w", err)
	}
	c.cacheTTL = ttl
	c.httpTimeout = timeout
	return nil
}

// CacheTTLDuration returns the cache TTL parsed by Validate. It is zero on
// a config that never validated.
func (c Config) CacheTTLDuration() time.Duration { return c.cacheTTL }

// HTTPTimeoutDuration returns the HTTP client timeout parsed by Validate.
func (c Config) HTTPTimeoutDuration() time.Duration { return c.httpTimeout }
