package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresPostgresURL(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresRedisURL(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/explorer")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/explorer")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, float64(200000), cfg.MaxQueryCost)
	require.Equal(t, int64(50000), cfg.MaxQueryRows)
	require.True(t, cfg.FeedEnabled)
	require.Equal(t, "txns-live", cfg.FeedTopic)
	require.Equal(t, time.Second, cfg.FeedPollInterval)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://localhost/explorer")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("MAX_QUERY_COST", "500")
	t.Setenv("MAX_QUERY_ROWS", "100")
	t.Setenv("FEED_ENABLED", "false")
	t.Setenv("FEED_POLL_INTERVAL", "250ms")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, float64(500), cfg.MaxQueryCost)
	require.Equal(t, int64(100), cfg.MaxQueryRows)
	require.False(t, cfg.FeedEnabled)
	require.Equal(t, 250*time.Millisecond, cfg.FeedPollInterval)
	require.Equal(t, ":9090", cfg.HTTPAddr)
}
