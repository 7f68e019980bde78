// Package config handles YAML configuration parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Fetch  FetchConfig  `yaml:"fetch,omitempty"`
	Render RenderConfig `yaml:"render,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	Query  QueryConfig  `yaml:"query,omitempty"`
}

// APIConfig configures the Google Maps client. The key may come from
// the file or from the GOOGLE_MAPS_API_KEY environment variable; the
// environment wins.
type APIConfig struct {
	Key string `yaml:"key"`
	QPS int    `yaml:"qps"`
}

// FetchConfig tunes the retry orchestrator. Zero values fall back to
// the orchestrator's defaults.
type FetchConfig struct {
	InitialConcurrency int           `yaml:"initial_concurrency"`
	ConcurrencyDecay   float64       `yaml:"concurrency_decay"`
	MinConcurrency     int           `yaml:"min_concurrency"`
	MaxRounds          int           `yaml:"max_rounds"`
	PerCallTimeout     time.Duration `yaml:"per_call_timeout"`
	RoundTimeout       time.Duration `yaml:"round_timeout"`
}

// RenderConfig selects the plot renderer.
type RenderConfig struct {
	Mode string `yaml:"mode"` // "text" or "color"
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// QueryConfig carries defaults for window queries.
type QueryConfig struct {
	Timezone        string `yaml:"timezone"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file, then applies
// defaults and the environment key override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		c.API.Key = key
	}
	if c.Render.Mode == "" {
		c.Render.Mode = "text"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Query.Timezone == "" {
		c.Query.Timezone = "America/Los_Angeles"
	}
	if c.Query.IntervalMinutes == 0 {
		c.Query.IntervalMinutes = 15
	}
}

// Validate rejects values the rest of the system would choke on.
func (c *Config) Validate() error {
	if c.Render.Mode != "text" && c.Render.Mode != "color" {
		return fmt.Errorf("render.mode must be text or color, got %q", c.Render.Mode)
	}
	if c.Fetch.ConcurrencyDecay < 0 || c.Fetch.ConcurrencyDecay > 1 {
		return fmt.Errorf("fetch.concurrency_decay must be between 0 and 1 (0 means default), got %v", c.Fetch.ConcurrencyDecay)
	}
	if c.Fetch.InitialConcurrency < 0 || c.Fetch.MinConcurrency < 0 || c.Fetch.MaxRounds < 0 {
		return fmt.Errorf("fetch concurrency and round settings must not be negative")
	}
	if c.Query.IntervalMinutes < 0 {
		return fmt.Errorf("query.interval_minutes must be positive, got %d", c.Query.IntervalMinutes)
	}
	return nil
}
