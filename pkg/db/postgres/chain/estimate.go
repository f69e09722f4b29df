package chain

import (
	"context"
	"fmt"

	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/db/query"
	"go.uber.org/zap"
)

// gatedCount runs a count through the admission policy. buildKeys must
// render the key-listing query for the predicate being counted; the same
// function produces both the planner-estimate text and the exact COUNT,
// so the WHERE semantics are identical by construction.
//
// The planner estimate is cheap (the query is never executed). The exact
// COUNT runs only when the estimate stays within the configured cost OR
// row threshold; when both are exceeded the estimate itself is the
// answer, with Cost set as the discriminator.
func (db *DB) gatedCount(ctx context.Context, buildKeys func(b *query.Builder) string) (models.CountRow, error) {
	inline := query.NewInlineBuilder()
	estimateSQL := buildKeys(inline)

	cost, rows, err := db.estimateQuery(ctx, estimateSQL)
	if err != nil {
		return models.CountRow{}, err
	}

	if cost > db.Gate.MaxQueryCost && rows > db.Gate.MaxQueryRows {
		db.Logger.Debug("count admission rejected, returning estimate",
			zap.Float64("cost", cost),
			zap.Int64("rows", rows),
			zap.Float64("max_cost", db.Gate.MaxQueryCost),
			zap.Int64("max_rows", db.Gate.MaxQueryRows),
		)
		return models.CountRow{Cost: &cost, Count: rows}, nil
	}

	b := query.NewBuilder()
	countSQL := "SELECT COUNT(*) FROM (" + buildKeys(b) + ") AS keys"

	var count int64
	if err := db.Querier.QueryRow(ctx, countSQL, b.Args()...).Scan(&count); err != nil {
		return models.CountRow{}, fmt.Errorf("exact count: %w", err)
	}

	return models.CountRow{Count: count}, nil
}

// estimateQuery asks the store's planner for the cost and row estimate
// of a query without executing it. count_cost_estimate is a database
// function wrapping EXPLAIN (FORMAT JSON); the query text carries
// escaped literals because the extended protocol cannot bind parameters
// inside an EXPLAIN.
func (db *DB) estimateQuery(ctx context.Context, sql string) (float64, int64, error) {
	var cost float64
	var rows int64
	err := db.Querier.QueryRow(ctx,
		`SELECT cost, rows FROM count_cost_estimate($1)`, sql,
	).Scan(&cost, &rows)
	if err != nil {
		return 0, 0, fmt.Errorf("cost estimate: %w", err)
	}
	return cost, rows, nil
}

// tableEstimate returns the planner's row estimate for an unfiltered
// query, used when an exact whole-table count would scan everything.
func (db *DB) tableEstimate(ctx context.Context, sql string) (int64, error) {
	var count int64
	err := db.Querier.QueryRow(ctx,
		`SELECT count_estimate($1) AS count`, sql,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("table estimate: %w", err)
	}
	return count, nil
}
