package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the API server.
type Config struct {

	// PostgreSQL
	PostgresURL string
	DBMinConns  int32
	DBMaxConns  int32

	// Redis
	RedisURL string

	// Count cost gate. A count whose planner estimate exceeds BOTH
	// thresholds returns the estimate instead of an exact count.
	MaxQueryCost float64
	MaxQueryRows int64

	// Live feed
	FeedEnabled      bool
	FeedTopic        string
	FeedPollInterval time.Duration

	// HTTP API
	HTTPAddr string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		DBMinConns:       2,
		DBMaxConns:       20,
		MaxQueryCost:     200000,
		MaxQueryRows:     50000,
		FeedEnabled:      true,
		FeedTopic:        "txns-live",
		FeedPollInterval: time.Second,
		HTTPAddr:         ":8080",
		LogLevel:         "info",
	}

	// Required
	cfg.PostgresURL = os.Getenv("POSTGRES_URL")
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	// Optional overrides
	if v := os.Getenv("DB_MIN_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.DBMinConns = int32(n)
		}
	}

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.DBMaxConns = int32(n)
		}
	}

	if v := os.Getenv("MAX_QUERY_COST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxQueryCost = f
		}
	}

	if v := os.Getenv("MAX_QUERY_ROWS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxQueryRows = n
		}
	}

	if v := os.Getenv("FEED_ENABLED"); v != "" {
		cfg.FeedEnabled = v == "true" || v == "1"
	}

	if v := os.Getenv("FEED_TOPIC"); v != "" {
		cfg.FeedTopic = v
	}

	if v := os.Getenv("FEED_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FeedPollInterval = d
		}
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
