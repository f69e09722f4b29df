package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nearscan/explorer-api/internal/api"
	"github.com/nearscan/explorer-api/internal/cache"
	"github.com/nearscan/explorer-api/internal/config"
	"github.com/nearscan/explorer-api/internal/feed"
	"github.com/nearscan/explorer-api/pkg/db/postgres"
	"github.com/nearscan/explorer-api/pkg/db/postgres/chain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	logger, err := newZapLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer logger.Sync()

	slog.Info("starting explorer-api",
		"addr", cfg.HTTPAddr,
		"feed_enabled", cfg.FeedEnabled,
	)

	// Connect to PostgreSQL
	store, err := chain.New(ctx, logger, cfg.PostgresURL,
		chain.GateConfig{
			MaxQueryCost: cfg.MaxQueryCost,
			MaxQueryRows: cfg.MaxQueryRows,
		},
		&postgres.PoolConfig{
			MinConns:  cfg.DBMinConns,
			MaxConns:  cfg.DBMaxConns,
			Component: "api",
		})
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse redis url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	c := cache.New(redisClient, logger)

	// Run all components
	g, ctx := errgroup.WithContext(ctx)

	var hub *feed.Hub
	if cfg.FeedEnabled {
		pub, err := feed.NewPublisher(redisClient, cfg.FeedTopic)
		if err != nil {
			slog.Error("failed to create feed publisher", "err", err)
			os.Exit(1)
		}
		defer pub.Close()

		hub, err = feed.NewHub(redisClient, cfg.FeedTopic)
		if err != nil {
			slog.Error("failed to create feed hub", "err", err)
			os.Exit(1)
		}
		defer hub.Close()

		poller := feed.NewPoller(store, pub, cfg.FeedPollInterval)

		g.Go(func() error {
			return poller.Run(ctx)
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	server, err := api.NewServer(store, c, hub, logger, cfg.HTTPAddr)
	if err != nil {
		slog.Error("failed to create server", "err", err)
		os.Exit(1)
	}

	g.Go(func() error {
		return server.Run(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("api error", "err", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func newZapLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zcfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}
