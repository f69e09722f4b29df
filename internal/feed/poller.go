package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/nearscan/explorer-api/pkg/db/postgres/chain"
)

// pollBatch caps how many new transactions one tick publishes. A poller
// that falls behind catches up across ticks instead of flooding one
// message.
const pollBatch = 100

// Poller follows the transactions table by surrogate id and publishes
// each batch of new rows to the feed stream.
type Poller struct {
	db       *chain.DB
	pub      *Publisher
	interval time.Duration
}

// NewPoller creates a new Poller.
func NewPoller(db *chain.DB, pub *Publisher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		db:       db,
		pub:      pub,
		interval: interval,
	}
}

// Run starts the poller. It blocks until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	lastID, err := p.db.LatestTxnID(ctx)
	if err != nil {
		return err
	}

	slog.Info("feed poller starting",
		"last_id", lastID,
		"interval", p.interval,
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			txns, err := p.db.TxnsAfter(ctx, lastID, pollBatch)
			if err != nil {
				slog.Warn("feed poll failed", "last_id", lastID, "err", err)
				continue
			}
			if len(txns) == 0 {
				continue
			}

			if err := p.pub.PublishTxns(ctx, txns); err != nil {
				// Do not advance past unpublished rows.
				continue
			}

			lastID = txns[len(txns)-1].ID
		}
	}
}
