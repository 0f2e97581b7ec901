package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	EventLog  EventLogConfig
	Simulator SimulatorConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"4000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EventLogConfig holds event persistence configuration.
type EventLogConfig struct {
	Enabled bool   `envconfig:"EVENTLOG_ENABLED" default:"true"`
	Path    string `envconfig:"EVENTLOG_PATH" default:"events.sqlite3"`
	Buffer  int    `envconfig:"EVENTLOG_BUFFER" default:"1024"`
}

// SimulatorConfig holds simulation defaults.
type SimulatorConfig struct {
	DefaultBufferSize int           `envconfig:"SIM_DEFAULT_BUFFER_SIZE" default:"5"`
	TickInterval      time.Duration `envconfig:"SIM_TICK_INTERVAL" default:"0s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "4000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		EventLog: EventLogConfig{
			Enabled: true,
			Path:    "events.sqlite3",
			Buffer:  1024,
		},
		Simulator: SimulatorConfig{
			DefaultBufferSize: 5,
		},
	}
}

// Validate reports every setting that cannot work.
func (c *Config) Validate() error {
	var err error
	if c.Server.Port == "" {
		err = multierr.Append(err, errors.New("server port is empty"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		err = multierr.Append(err, fmt.Errorf("rate limit needs positive rps and burst, got %d/%d",
			c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	if c.EventLog.Enabled {
		if c.EventLog.Path == "" {
			err = multierr.Append(err, errors.New("event log path is empty"))
		}
		if c.EventLog.Buffer <= 0 {
			err = multierr.Append(err, fmt.Errorf("event log buffer must be positive, got %d", c.EventLog.Buffer))
		}
	}
	if c.Simulator.DefaultBufferSize < 0 {
		err = multierr.Append(err, fmt.Errorf("default buffer size must not be negative, got %d", c.Simulator.DefaultBufferSize))
	}
	if c.Simulator.TickInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("tick interval must not be negative, got %s", c.Simulator.TickInterval))
	}
	return err
}
