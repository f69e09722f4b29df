package chain

import (
	"context"
	"fmt"

	"github.com/go-jose/go-jose/v4/json"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/db/query"
)

// receiptDirWhere builds the receipt predicate for one direction column
// (predecessor or receiver pinned to a single account).
func receiptDirWhere(f *TxnFilter, directional query.Expr) query.Expr {
	var actions query.Expr
	if f.Action != "" || f.Method != "" {
		actions = actionExists("r.receipt_id", f.Action, f.Method)
	}

	var cursor, after, before query.Expr
	if f.Cursor > 0 {
		cursor = query.Cmp("r.id", f.Order.CursorOp(), f.Cursor)
	}
	if f.AfterTimestamp > 0 {
		after = query.Cmp("r.included_in_block_timestamp", ">=", f.AfterTimestamp)
	}
	if f.BeforeTimestamp > 0 {
		before = query.Cmp("r.included_in_block_timestamp", "<", f.BeforeTimestamp)
	}

	return query.And(
		query.Eq("r.receipt_kind", receiptKindAction),
		directional,
		cursor,
		actions,
		after,
		before,
	)
}

// receiptKeysSQL picks the page of receipt ids. Without an explicit
// direction it unions two per-direction sub-queries, each independently
// ordered and limited, then re-sorts and re-limits the union so neither
// direction can dominate the page for a very active account. With
// from/to present it collapses to a single directional query.
func receiptKeysSQL(f *TxnFilter, b *query.Builder) string {
	limit, _ := f.limitOffset()
	dir := f.Order.SQL()

	if f.From != "" || f.To != "" {
		from := f.From
		if from == "" {
			from = f.Account
		}
		to := f.To
		if to == "" {
			to = f.Account
		}
		where := query.Render(b, receiptDirWhere(f, query.And(
			query.Eq("r.predecessor_account_id", from),
			query.Eq("r.receiver_account_id", to),
		)))
		return fmt.Sprintf(`
			SELECT r.id, r.receipt_id
			FROM receipts r
			WHERE %s
			ORDER BY r.id %s
			LIMIT %s`, where, dir, b.Bind(limit))
	}

	outWhere := query.Render(b, receiptDirWhere(f, query.Eq("r.predecessor_account_id", f.Account)))
	outLimit := b.Bind(limit)
	inWhere := query.Render(b, receiptDirWhere(f, query.Eq("r.receiver_account_id", f.Account)))
	inLimit := b.Bind(limit)

	return fmt.Sprintf(`
		SELECT id, receipt_id
		FROM (
			(
				SELECT r.id, r.receipt_id
				FROM receipts r
				WHERE %s
				ORDER BY r.id %s
				LIMIT %s
			)
			UNION
			(
				SELECT r.id, r.receipt_id
				FROM receipts r
				WHERE %s
				ORDER BY r.id %s
				LIMIT %s
			)
			ORDER BY id %s
			LIMIT %s
		) AS page`,
		outWhere, dir, outLimit,
		inWhere, dir, inLimit,
		dir, b.Bind(limit))
}

// receiptCountKeysSQL is the counting projection over the same predicate
// logic, minus the cursor and paging bounds.
func receiptCountKeysSQL(f *TxnFilter, b *query.Builder) string {
	counting := *f
	counting.Cursor = 0

	var directional query.Expr
	if f.From != "" || f.To != "" {
		from := f.From
		if from == "" {
			from = f.Account
		}
		to := f.To
		if to == "" {
			to = f.Account
		}
		directional = query.And(
			query.Eq("r.predecessor_account_id", from),
			query.Eq("r.receiver_account_id", to),
		)
	} else {
		directional = query.Or(
			query.Eq("r.predecessor_account_id", f.Account),
			query.Eq("r.receiver_account_id", f.Account),
		)
	}

	return `
		SELECT r.receipt_id
		FROM receipts r
		WHERE ` + query.Render(b, receiptDirWhere(&counting, directional))
}

// receiptAggregateColumns denormalize each receipt row: its block, its
// own execution outcome, its action list (with deposit and raw args),
// and the deposit sum. Unlike the transaction aggregates these are
// per-receipt, not per-conversion-receipt.
const receiptAggregateColumns = `
		LEFT JOIN LATERAL (
			SELECT
				b.block_hash,
				b.block_height,
				b.block_timestamp::TEXT
			FROM blocks b
			WHERE b.block_hash = r.included_in_block_hash
		) block ON TRUE
		LEFT JOIN LATERAL (
			SELECT
				eo.gas_burnt::TEXT,
				eo.tokens_burnt::TEXT,
				eo.executor_account_id,
				CASE
					WHEN eo.status = 'SUCCESS_RECEIPT_ID'
					OR eo.status = 'SUCCESS_VALUE' THEN TRUE
					ELSE FALSE
				END AS status
			FROM execution_outcomes eo
			WHERE eo.receipt_id = r.receipt_id
		) outcome ON TRUE
		LEFT JOIN LATERAL (
			SELECT JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'action', ara.action_kind,
					'method', ara.args ->> 'method_name',
					'deposit', COALESCE((ara.args ->> 'deposit')::NUMERIC, 0)::TEXT,
					'args', ara.args ->> 'args_json'
				)
			) AS actions
			FROM action_receipt_actions ara
			WHERE ara.receipt_id = r.receipt_id
		) actions ON TRUE
		LEFT JOIN LATERAL (
			SELECT COALESCE(SUM((ara.args ->> 'deposit')::NUMERIC), 0)::TEXT AS deposit
			FROM action_receipt_actions ara
			WHERE ara.receipt_id = r.receipt_id
		) actions_agg ON TRUE`

// AccountReceipts lists the action receipts an account participates in.
func (db *DB) AccountReceipts(ctx context.Context, f TxnFilter) ([]models.Receipt, error) {
	if f.Contradictory() {
		return []models.Receipt{}, nil
	}

	b := query.NewBuilder()
	keys := receiptKeysSQL(&f, b)

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
		INNER JOIN (%s) AS tmp USING (receipt_id)%s
		ORDER BY r.id %s`,
		keys, receiptAggregateColumns, f.Order.SQL())

	rows, err := db.Querier.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query account receipts: %w", err)
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
			return nil, fmt.Errorf("scan receipt: %w", err)
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

// AccountReceiptsCount counts the receipt listing through the cost gate.
func (db *DB) AccountReceiptsCount(ctx context.Context, f TxnFilter) (models.CountRow, error) {
	if f.Contradictory() {
		return models.CountRow{}, nil
	}

	return db.gatedCount(ctx, func(b *query.Builder) string {
		return receiptCountKeysSQL(&f, b)
	})
}

func unmarshalReceiptAggregates(rec *models.Receipt, block, outcome, actions, actionsAgg []byte) error {
	if len(block) > 0 {
		if err := json.Unmarshal(block, &rec.Block); err != nil {
			return fmt.Errorf("unmarshal block: %w", err)
		}
	}
	if len(outcome) > 0 {
		if err := json.Unmarshal(outcome, &rec.Outcome); err != nil {
			return fmt.Errorf("unmarshal outcome: %w", err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &rec.Actions); err != nil {
			return fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	if len(actionsAgg) > 0 {
		if err := json.Unmarshal(actionsAgg, &rec.ActionsAgg); err != nil {
			return fmt.Errorf("unmarshal actions_agg: %w", err)
		}
	}
	return nil
}
