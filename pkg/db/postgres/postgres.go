// Package postgres wraps a pgx connection pool with the small query
// surface the data access layers use.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the query-execution capability consumed by the data access
// layers. Parameters always travel as bindings, never interpolated text.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolConfig tunes the connection pool per component.
type PoolConfig struct {
	MinConns  int32
	MaxConns  int32
	Component string // Label for pool logging (e.g., "api")
}

// Client represents a PostgreSQL connection pool with a scoped logger.
type Client struct {
	Pool   *pgxpool.Pool
	Logger *zap.Logger
}

// New creates a connection pool and verifies connectivity.
func New(ctx context.Context, logger *zap.Logger, url string, poolConfig *PoolConfig) (Client, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return Client{}, fmt.Errorf("parse config: %w", err)
	}

	config.MinConns = 2
	config.MaxConns = 20
	if poolConfig != nil {
		if poolConfig.MinConns > 0 {
			config.MinConns = poolConfig.MinConns
		}
		if poolConfig.MaxConns > 0 {
			config.MaxConns = poolConfig.MaxConns
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return Client{}, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Client{}, fmt.Errorf("ping: %w", err)
	}

	logger.Info("postgres pool ready",
		zap.Int32("min_conns", config.MinConns),
		zap.Int32("max_conns", config.MaxConns),
	)

	return Client{Pool: pool, Logger: logger}, nil
}

// Exec runs a statement, discarding the result.
func (c Client) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.Pool.Exec(ctx, sql, args...)
	return err
}

// Query runs a query returning rows. The caller owns closing the rows on
// every exit path; the pool connection is released when they close.
func (c Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.Pool.Query(ctx, sql, args...)
}

// QueryRow runs a query expected to return at most one row.
func (c Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.Pool.QueryRow(ctx, sql, args...)
}

// Close terminates the pool.
func (c Client) Close() error {
	c.Pool.Close()
	return nil
}
