// Package config loads and validates the console configuration: engine
// address, poll cadence, logging, journal, snapshot store and board settings.
// Values come from an optional YAML file with environment overrides on top.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete console configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Poll    PollConfig    `yaml:"poll"`
	Log     LogConfig     `yaml:"log"`
	Journal JournalConfig `yaml:"journal"`
	Store   StoreConfig   `yaml:"store"`
	Board   BoardConfig   `yaml:"board"`
}

// APIConfig addresses the trading engine's HTTP API.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`   // Engine base address, e.g. http://localhost:8000
	TimeoutMS int    `yaml:"timeout_ms"` // Per-request timeout in milliseconds
	RPS       int    `yaml:"rps"`        // Request rate against the engine
	Burst     int    `yaml:"burst"`      // Burst capacity above the steady rate
}

// PollConfig controls the performance refresh loop.
type PollConfig struct {
	IntervalMS int `yaml:"interval_ms"` // Poll cadence in milliseconds
}

// LogConfig controls console logging.
type LogConfig struct {
	Level string `yaml:"level"` // trace, debug, info, warn or error
}

// JournalConfig selects where configuration submissions are recorded.
type JournalConfig struct {
	Driver   string `yaml:"driver"` // sqlite3 or postgres
	DSN      string `yaml:"dsn"`    // Driver-specific data source name
	Disabled bool   `yaml:"disabled"`
}

// StoreConfig selects the last-known-good snapshot store.
type StoreConfig struct {
	RedisAddr string `yaml:"redis_addr"` // Empty selects the in-memory store
	RedisDB   int    `yaml:"redis_db"`
	TTLSecs   int    `yaml:"ttl_secs"` // Snapshot retention, 0 keeps forever
}

// BoardConfig controls the optional web board server.
type BoardConfig struct {
	Listen string `yaml:"listen"` // Listen address, e.g. :8090
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMS: 10000,
			RPS:       4,
			Burst:     8,
		},
		Poll: PollConfig{
			IntervalMS: 30000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			Driver: "sqlite3",
			DSN:    "pythia_console.db",
		},
		Store: StoreConfig{
			TTLSecs: 86400,
		},
		Board: BoardConfig{
			Listen: ":8090",
		},
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating a starter file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PYTHIA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PYTHIA_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.TimeoutMS = int(d.Milliseconds())
		}
	}
	if v := os.Getenv("PYTHIA_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Poll.IntervalMS = int(d.Milliseconds())
		}
	}
	if v := os.Getenv("PYTHIA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PYTHIA_JOURNAL_DRIVER"); v != "" {
		c.Journal.Driver = v
	}
	if v := os.Getenv("PYTHIA_JOURNAL_DSN"); v != "" {
		c.Journal.DSN = v
	}
	if v := os.Getenv("PYTHIA_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("PYTHIA_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Store.RedisDB = db
		}
	}
	if v := os.Getenv("PYTHIA_BOARD_LISTEN"); v != "" {
		c.Board.Listen = v
	}
}

// Validate ensures the configuration is valid and consistent.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url cannot be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("api timeout_ms must be positive, got %d", c.API.TimeoutMS)
	}
	if c.API.RPS <= 0 {
		return fmt.Errorf("api rps must be positive, got %d", c.API.RPS)
	}
	if c.API.Burst < c.API.RPS {
		return fmt.Errorf("api burst (%d) must be >= rps (%d)", c.API.Burst, c.API.RPS)
	}
	if c.Poll.IntervalMS <= 0 {
		return fmt.Errorf("poll interval_ms must be positive, got %d", c.Poll.IntervalMS)
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error; got %q", c.Log.Level)
	}
	if !c.Journal.Disabled {
		switch c.Journal.Driver {
		case "sqlite3", "postgres":
		default:
			return fmt.Errorf("journal driver must be sqlite3 or postgres, got %q", c.Journal.Driver)
		}
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn cannot be empty when the journal is enabled")
		}
	}
	if c.Store.TTLSecs < 0 {
		return fmt.Errorf("store ttl_secs cannot be negative, got %d", c.Store.TTLSecs)
	}
	if c.Board.Listen == "" {
		return fmt.Errorf("board listen address cannot be empty")
	}
	return nil
}

// GetPollInterval returns the poll cadence as a time.Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// GetRequestTimeout returns the per-request timeout as a time.Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutMS) * time.Millisecond
}

// GetStoreTTL returns the snapshot retention as a time.Duration.
func (c *Config) GetStoreTTL() time.Duration {
	return time.Duration(c.Store.TTLSecs) * time.Second
}
