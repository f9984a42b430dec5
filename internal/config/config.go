// Package config loads daemon configuration from the environment with
// precedence ENV > default, the same for every knob.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds every runtime setting of the contract daemon.
type Config struct {
	// HTTP
	ListenAddr     string
	RateLimitRPS   int
	RateLimitBurst int

	// Logging
	LogLevel   string
	LogService string

	// Tracing; empty disables the otelhttp middleware.
	TracingService string

	// Storage
	DataDir    string // root for Badger saga store and SQLite database
	SQLitePath string // derived from DataDir unless set explicitly

	// Redis-backed timeout scheduler
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Saga orchestration
	InactivityTimeout time.Duration // auto-cancel window for idle contracts
	SchedulerPoll     time.Duration // poll interval for due timeouts
}

// Load assembles the configuration from environment variables.
func Load() Config {
	cfg := Config{
		ListenAddr:     ParseString("CONTRACTD_LISTEN", ":8080"),
		RateLimitRPS:   ParseInt("CONTRACTD_RATE_LIMIT_RPS", 50),
		RateLimitBurst: ParseInt("CONTRACTD_RATE_LIMIT_BURST", 100),

		LogLevel:   ParseString("CONTRACTD_LOG_LEVEL", "info"),
		LogService: ParseString("CONTRACTD_LOG_SERVICE", "contractd"),

		TracingService: ParseString("CONTRACTD_TRACING_SERVICE", ""),

		DataDir:    ParseString("CONTRACTD_DATA", "/var/lib/contractd"),
		SQLitePath: ParseString("CONTRACTD_SQLITE_PATH", ""),

		RedisAddr:     ParseString("CONTRACTD_REDIS_ADDR", "localhost:6379"),
		RedisPassword: ParseString("CONTRACTD_REDIS_PASSWORD", ""),
		RedisDB:       ParseInt("CONTRACTD_REDIS_DB", 0),

		InactivityTimeout: ParseDuration("CONTRACTD_INACTIVITY_TIMEOUT", time.Hour),
		SchedulerPoll:     ParseDuration("CONTRACTD_SCHEDULER_POLL", time.Second),
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "contracts.db")
	}
	return cfg
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data dir must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("config: redis address must not be empty")
	}
	if c.InactivityTimeout <= 0 {
		return fmt.Errorf("config: inactivity timeout must be positive, got %s", c.InactivityTimeout)
	}
	if c.SchedulerPoll <= 0 {
		return fmt.Errorf("config: scheduler poll interval must be positive, got %s", c.SchedulerPoll)
	}
	return nil
}
