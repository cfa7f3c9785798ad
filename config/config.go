// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DatabaseDSN is the postgres connection string for match records.
	// Empty means records are kept in memory only.
	DatabaseDSN string
	// Debug enables debug-level logging.
	Debug bool
	// Rounds is the number of full rounds per match.
	Rounds int
	// SweepInterval is how often abandoned finished rooms are collected.
	SweepInterval time.Duration
	// SweepGrace is how long a finished room may linger before collection.
	SweepGrace time.Duration
}

// Load reads configuration from the environment. Missing values fall back to
// development defaults.
func Load() *Config {
	godotenv.Load()
	return &Config{
		Addr:          envString("ADDR", ":8080"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		Debug:         envBool("DEBUG"),
		Rounds:        envInt("MATCH_ROUNDS", 5),
		SweepInterval: envDuration("SWEEP_INTERVAL", time.Minute),
		SweepGrace:    envDuration("SWEEP_GRACE", 5*time.Minute),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
