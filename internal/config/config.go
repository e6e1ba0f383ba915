// Package config handles engine configuration loading, saving, and validation.
package config

import (
	"fmt"
	"time"
)

// Config represents the engine configuration.
type Config struct {
	// QueryName is the canonical domain resolved by every probe.
	QueryName string `yaml:"query_name"`

	// TimeoutMS bounds a single probe in milliseconds.
	TimeoutMS int `yaml:"timeout_ms"`

	// Workers caps the number of in-flight probes across a whole run.
	Workers int64 `yaml:"workers"`

	// Attempts is the number of queries per server; the best latency wins.
	Attempts int `yaml:"attempts"`

	// EpsilonMS is the tie-break window: profiles whose aggregate latencies
	// differ by less than this keep their input order when ranked.
	EpsilonMS int `yaml:"epsilon_ms"`

	// HistoryLimit is the default number of history rows shown per profile.
	HistoryLimit int `yaml:"history_limit"`

	// BenchmarkInterval is the period, in seconds, between automatic
	// benchmark runs when the daemon is running.
	BenchmarkInterval int `yaml:"benchmark_interval"`
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	return &Config{
		QueryName:         "example.com",
		TimeoutMS:         2000,
		Workers:           10,
		Attempts:          1,
		EpsilonMS:         1,
		HistoryLimit:      20,
		BenchmarkInterval: 3600,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.QueryName == "" {
		return fmt.Errorf("query_name must not be empty")
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMS)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", c.Attempts)
	}
	if c.EpsilonMS < 0 {
		return fmt.Errorf("epsilon_ms must not be negative, got %d", c.EpsilonMS)
	}
	if c.BenchmarkInterval <= 0 {
		return fmt.Errorf("benchmark_interval must be positive, got %d", c.BenchmarkInterval)
	}
	return nil
}

// Timeout returns the per-probe timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Epsilon returns the ranking tie-break window as a duration.
func (c *Config) Epsilon() time.Duration {
	return time.Duration(c.EpsilonMS) * time.Millisecond
}
