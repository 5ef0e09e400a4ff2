// Package config holds the runtime configuration for the baseindex
// ingester. Values come from the environment, with a local .env file
// loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full ingester configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the Base node. Required.
	RPCURL string

	// DBPath is the SQLite database file location.
	DBPath string

	// PollInterval is the idle sleep between head polls.
	PollInterval time.Duration

	// SafetyBuffer is how many blocks behind head ingestion stays to
	// avoid unfinalized blocks.
	SafetyBuffer uint64

	// ReorgRewindDepth is how many blocks a detected reorg rewinds.
	ReorgRewindDepth uint64

	// StatsWindow is the block window the stats report covers.
	StatsWindow uint64

	// ConcurrencyLimit bounds concurrent per-hash receipt fetches.
	ConcurrencyLimit int

	// LogLevel is the minimum log level name (debug, info, warn, error).
	LogLevel string
}

// DefaultConfig returns a Config with all defaults applied and no RPC URL.
func DefaultConfig() Config {
	return Config{
		DBPath:           "./data/base.db",
		PollInterval:     2 * time.Second,
		SafetyBuffer:     3,
		ReorgRewindDepth: 10,
		StatsWindow:      100,
		ConcurrencyLimit: 5,
		LogLevel:         "info",
	}
}

// FromEnv builds a Config from the process environment. A .env file in the
// working directory is merged in first; missing files are not an error.
func FromEnv() (Config, error) {
	// godotenv never overrides variables already present in the
	// environment, so real env vars win over .env entries.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.RPCURL = os.Getenv("RPC_URL")

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	var err error
	if cfg.PollInterval, err = envDurationMS("POLL_INTERVAL_MS", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.SafetyBuffer, err = envUint("SAFETY_BUFFER_BLOCKS", cfg.SafetyBuffer); err != nil {
		return Config{}, err
	}
	if cfg.ReorgRewindDepth, err = envUint("REORG_REWIND_DEPTH", cfg.ReorgRewindDepth); err != nil {
		return Config{}, err
	}
	if cfg.StatsWindow, err = envUint("STATS_WINDOW_BLOCKS", cfg.StatsWindow); err != nil {
		return Config{}, err
	}
	limit, err := envUint("CONCURRENCY_LIMIT", uint64(cfg.ConcurrencyLimit))
	if err != nil {
		return Config{}, err
	}
	cfg.ConcurrencyLimit = int(limit)

	return cfg, nil
}

// Validate checks the configuration for correctness. A missing RPC URL is a
// fatal configuration error.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("config: RPC_URL must be set")
	}
	if c.DBPath == "" {
		return errors.New("config: DB_PATH must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: invalid poll interval %v", c.PollInterval)
	}
	if c.ReorgRewindDepth == 0 {
		return errors.New("config: REORG_REWIND_DEPTH must be greater than 0")
	}
	if c.ConcurrencyLimit <= 0 {
		return fmt.Errorf("config: invalid concurrency limit %d", c.ConcurrencyLimit)
	}
	return nil
}

// envUint reads an unsigned integer environment variable, returning def
// when the variable is unset or empty.
func envUint(name string, def uint64) (uint64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an unsigned integer: %w", name, v, err)
	}
	return n, nil
}

// envDurationMS reads a millisecond count from the environment as a
// time.Duration, returning def when unset.
func envDurationMS(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	ms, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a millisecond count: %w", name, v, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
