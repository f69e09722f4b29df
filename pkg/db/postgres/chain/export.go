package chain

import (
	"context"
	"fmt"

	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/db/query"
)

// ExportRowLimit caps a single CSV export. Ranges with more qualifying
// rows truncate silently rather than erroring.
const ExportRowLimit = 5000

// ExportRange bounds an export to a day-aligned timestamp window, both
// ends in nanoseconds and both inclusive.
type ExportRange struct {
	Account string
	StartNs int64
	EndNs   int64
}

// AccountTxnsForExport fetches up to ExportRowLimit transactions for the
// account inside the range, ordered by (block timestamp, in-block index)
// ascending.
func (db *DB) AccountTxnsForExport(ctx context.Context, r ExportRange) ([]models.Txn, error) {
	b := query.NewBuilder()
	where := query.Render(b, query.And(
		query.Eq("r.receipt_kind", receiptKindAction),
		query.Or(
			query.Eq("r.predecessor_account_id", r.Account),
			query.Eq("r.receiver_account_id", r.Account),
		),
		query.Cmp("t.block_timestamp", ">=", r.StartNs),
		query.Cmp("t.block_timestamp", "<=", r.EndNs),
	))

	sql := fmt.Sprintf(`
		SELECT
			receipts.id,
			receipts.receipt_id,
			receipts.predecessor_account_id,
			receipts.receiver_account_id,
			tr.transaction_hash,
			tr.included_in_block_hash,
			tr.block_timestamp::TEXT,
			tr.block,
			tr.actions,
			tr.actions_agg,
			tr.outcomes,
			tr.outcomes_agg
		FROM receipts
		INNER JOIN (
			SELECT r.receipt_id
			FROM receipts r
			JOIN transactions t ON t.transaction_hash = r.originated_from_transaction_hash
			WHERE %s
			ORDER BY t.block_timestamp ASC, t.index_in_chunk ASC
			LIMIT %d
		) AS tmp USING (receipt_id)
		INNER JOIN LATERAL (
			SELECT
				transaction_hash,
				included_in_block_hash,
				block_timestamp,
				index_in_chunk,%s
			FROM transactions
			WHERE transactions.transaction_hash = receipts.originated_from_transaction_hash
		) tr ON TRUE
		ORDER BY tr.block_timestamp ASC, tr.index_in_chunk ASC`,
		where, ExportRowLimit, txnAggregateColumns)

	rows, err := db.Querier.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query txns export: %w", err)
	}
	defer rows.Close()

	txns := []models.Txn{}
	for rows.Next() {
		var t models.Txn
		var block, actions, actionsAgg, outcomes, outcomesAgg []byte
		if err := rows.Scan(
			&t.ID,
			&t.ReceiptID,
			&t.PredecessorAccountID,
			&t.ReceiverAccountID,
			&t.TransactionHash,
			&t.IncludedInBlockHash,
			&t.BlockTimestamp,
			&block,
			&actions,
			&actionsAgg,
			&outcomes,
			&outcomesAgg,
		); err != nil {
			return nil, fmt.Errorf("scan export txn: %w", err)
		}
		if err := unmarshalTxnAggregates(&t, block, actions, actionsAgg, outcomes, outcomesAgg); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return txns, nil
}

// AccountReceiptsForExport fetches up to ExportRowLimit receipts for the
// account inside the range, ordered by surrogate id ascending.
func (db *DB) AccountReceiptsForExport(ctx context.Context, r ExportRange) ([]models.Receipt, error) {
	b := query.NewBuilder()
	where := query.Render(b, query.And(
		query.Eq("r.receipt_kind", receiptKindAction),
		query.Or(
			query.Eq("r.predecessor_account_id", r.Account),
			query.Eq("r.receiver_account_id", r.Account),
		),
		query.Cmp("r.included_in_block_timestamp", ">=", r.StartNs),
		query.Cmp("r.included_in_block_timestamp", "<=", r.EndNs),
	))

	sql := fmt.Sprintf(`
		SELECT
			r.id,
			r.receipt_id,
			r.originated_from_transaction_hash AS transaction_hash,
			r.predecessor_account_id,
			r.receiver_account_id,
			TO_JSONB(block) AS block,
			TO_JSONB(outcome) AS outcome,
			actions.actions AS actions,
			TO_JSONB(actions_agg) AS actions_agg
		FROM receipts r
		INNER JOIN (
			SELECT r.receipt_id
			FROM receipts r
			WHERE %s
			ORDER BY r.id ASC
			LIMIT %d
		) AS tmp USING (receipt_id)%s
		ORDER BY r.id ASC`,
		where, ExportRowLimit, receiptAggregateColumns)

	rows, err := db.Querier.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query receipts export: %w", err)
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		var rec models.Receipt
		var block, outcome, actions, actionsAgg []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.ReceiptID,
			&rec.TransactionHash,
			&rec.PredecessorAccountID,
			&rec.ReceiverAccountID,
			&block,
			&outcome,
			&actions,
			&actionsAgg,
		); err != nil {
			return nil, fmt.Errorf("scan export receipt: %w", err)
		}
		if err := unmarshalReceiptAggregates(&rec, block, outcome, actions, actionsAgg); err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return receipts, nil
}
