// Package chain reads indexed ledger data (transactions, receipts,
// actions, execution outcomes) owned by the external indexer database.
// Everything here is read-only; the indexer write path lives elsewhere.
package chain

import (
	"context"

	"github.com/nearscan/explorer-api/pkg/db/postgres"
	"go.uber.org/zap"
)

// GateConfig holds the admission thresholds for the cost-gated counter.
// Exact counts run only when the planner estimate stays under at least
// one of the two limits.
type GateConfig struct {
	MaxQueryCost float64
	MaxQueryRows int64
}

// DB represents the chain database connection for explorer queries.
type DB struct {
	Querier postgres.Querier
	Logger  *zap.Logger
	Gate    GateConfig

	client *postgres.Client
}

// New creates and connects a chain database instance.
func New(ctx context.Context, logger *zap.Logger, url string, gate GateConfig, poolConfig *postgres.PoolConfig) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(zap.String("db", "chain")), url, poolConfig)
	if err != nil {
		return nil, err
	}

	return &DB{
		Querier: client,
		Logger:  logger,
		Gate:    gate,
		client:  &client,
	}, nil
}

// Close terminates the underlying connection pool.
func (db *DB) Close() error {
	if db.client != nil {
		return db.client.Close()
	}
	return nil
}
