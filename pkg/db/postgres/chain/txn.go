package chain

import (
	"context"
	"fmt"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/jackc/pgx/v5"
	models "github.com/nearscan/explorer-api/pkg/db/models/indexer"
	"github.com/nearscan/explorer-api/pkg/db/query"
)

// receiptKindAction is the only receipt kind the listings query; data
// receipts never carry actions or outcomes.
const receiptKindAction = "ACTION"

// TxnFilter is the canonical filter set for transaction listings and
// counts. Timestamps are nanoseconds since epoch; zero means unset.
// Cursor and Page/PerPage are mutually exclusive access modes: a cursor
// forces the offset to zero.
type TxnFilter struct {
	Account         string
	BlockHash       string
	From            string
	To              string
	Action          string
	Method          string
	AfterTimestamp  int64
	BeforeTimestamp int64
	Cursor          int64
	Page            int
	PerPage         int
	Order           query.Order
}

func (f *TxnFilter) limitOffset() (int, int) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	per := f.PerPage
	if per < 1 {
		per = 25
	}
	offset := (page - 1) * per
	if f.Cursor > 0 {
		offset = 0
	}
	return per, offset
}

// Contradictory reports whether the from/to pair can never match the
// account. Both directional filters set to third parties define an empty
// result, not an error.
func (f *TxnFilter) Contradictory() bool {
	return f.From != "" && f.To != "" && f.From != f.Account && f.To != f.Account
}

// actionExists constrains a receipt alias to own at least one action of
// the requested kind/method.
func actionExists(receiptCol, action, method string) query.Expr {
	var kind, name query.Expr
	if action != "" {
		kind = query.Eq("a.action_kind", action)
	}
	if method != "" {
		name = query.Eq("a.args ->> 'method_name'", method)
	}
	return query.Exists("action_receipt_actions a",
		query.And(query.Raw("a.receipt_id = "+receiptCol), kind, name))
}

// accountTxnWhere is the single predicate shared by the account listing
// and both counting projections.
func accountTxnWhere(f *TxnFilter) query.Expr {
	var direction query.Expr
	if f.From != "" || f.To != "" {
		from := f.From
		if from == "" {
			from = f.Account
		}
		to := f.To
		if to == "" {
			to = f.Account
		}
		direction = query.And(
			query.Eq("r.predecessor_account_id", from),
			query.Eq("r.receiver_account_id", to),
		)
	} else {
		direction = query.Or(
			query.Eq("r.predecessor_account_id", f.Account),
			query.Eq("r.receiver_account_id", f.Account),
		)
	}

	var actions query.Expr
	if f.Action != "" || f.Method != "" {
		actions = actionExists("r.receipt_id", f.Action, f.Method)
	}

	var cursor query.Expr
	if f.Cursor > 0 {
		cursor = query.Cmp("r.id", f.Order.CursorOp(), f.Cursor)
	}

	var after, before query.Expr
	if f.AfterTimestamp > 0 {
		after = query.Cmp("t.block_timestamp", ">=", f.AfterTimestamp)
	}
	if f.BeforeTimestamp > 0 {
		before = query.Cmp("t.block_timestamp", "<", f.BeforeTimestamp)
	}

	return query.And(
		query.Eq("r.receipt_kind", receiptKindAction),
		direction,
		actions,
		cursor,
		after,
		before,
	)
}

// accountTxnKeysSQL renders the key-listing projection over the account
// predicate. The same SQL feeds the planner estimate (inline builder) and
// the exact count (wrapped in COUNT(*)), so the WHERE semantics can never
// drift between the two.
func accountTxnKeysSQL(f *TxnFilter, b *query.Builder) string {
	return `
		SELECT r.receipt_id
		FROM receipts r
		JOIN transactions t ON t.transaction_hash = r.originated_from_transaction_hash
		WHERE ` + query.Render(b, accountTxnWhere(f))
}

// txnAggregateColumns are the correlated subqueries attaching block,
// action, and outcome summaries to each transaction row. Status is the
// BOOL_AND across the conversion receipt's outcomes (NULL while any
// outcome is pending); the fee adds the conversion burn to the burns of
// every receipt the transaction originated.
const txnAggregateColumns = `
		(
			SELECT JSON_BUILD_OBJECT('block_height', block_height)
			FROM blocks
			WHERE blocks.block_hash = transactions.included_in_block_hash
		) AS block,
		(
			SELECT JSON_AGG(
				JSON_BUILD_OBJECT(
					'action', action_receipt_actions.action_kind,
					'method', action_receipt_actions.args ->> 'method_name'
				)
			)
			FROM action_receipt_actions
			JOIN receipts ON receipts.receipt_id = action_receipt_actions.receipt_id
			WHERE receipts.receipt_id = transactions.converted_into_receipt_id
		) AS actions,
		(
			SELECT JSON_BUILD_OBJECT('deposit', COALESCE(SUM((args ->> 'deposit')::NUMERIC), 0)::TEXT)
			FROM action_receipt_actions
			JOIN receipts ON receipts.receipt_id = action_receipt_actions.receipt_id
			WHERE receipts.receipt_id = transactions.converted_into_receipt_id
		) AS actions_agg,
		(
			SELECT JSON_BUILD_OBJECT('status', BOOL_AND(
				CASE
					WHEN status = 'SUCCESS_RECEIPT_ID'
					OR status = 'SUCCESS_VALUE' THEN TRUE
					ELSE FALSE
				END
			))
			FROM execution_outcomes
			WHERE execution_outcomes.receipt_id = transactions.converted_into_receipt_id
		) AS outcomes,
		(
			SELECT JSON_BUILD_OBJECT('transaction_fee',
				(COALESCE(receipt_conversion_tokens_burnt, 0) + COALESCE(SUM(tokens_burnt), 0))::TEXT
			)
			FROM execution_outcomes
			JOIN receipts ON receipts.receipt_id = execution_outcomes.receipt_id
			WHERE receipts.originated_from_transaction_hash = transactions.transaction_hash
		) AS outcomes_agg`

// accountTxnListSQL builds the bounded account listing: the key subquery
// picks the page, the lateral join denormalizes each transaction.
func accountTxnListSQL(f *TxnFilter, b *query.Builder) string {
	limit, offset := f.limitOffset()
	dir := f.Order.SQL()

	keys := accountTxnKeysSQL(f, b) + fmt.Sprintf(`
		ORDER BY t.block_timestamp %s, t.index_in_chunk %s
		LIMIT %s OFFSET %s`, dir, dir, b.Bind(limit), b.Bind(offset))

	return fmt.Sprintf(`
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
		INNER JOIN (%s) AS tmp USING (receipt_id)
		INNER JOIN LATERAL (
			SELECT
				transaction_hash,
				included_in_block_hash,
				block_timestamp,
				index_in_chunk,%s
			FROM transactions
			WHERE transactions.transaction_hash = receipts.originated_from_transaction_hash
		) tr ON TRUE
		ORDER BY tr.block_timestamp %s, tr.index_in_chunk %s`,
		keys, txnAggregateColumns, dir, dir)
}

// AccountTxns lists the transactions an account participates in, as
// predecessor, receiver, or the exact direction the filter names.
func (db *DB) AccountTxns(ctx context.Context, f TxnFilter) ([]models.Txn, error) {
	if f.Contradictory() {
		return []models.Txn{}, nil
	}

	b := query.NewBuilder()
	sql := accountTxnListSQL(&f, b)

	rows, err := db.Querier.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query account txns: %w", err)
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
			return nil, fmt.Errorf("scan account txn: %w", err)
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

// AccountTxnsCount counts the account listing through the cost gate.
func (db *DB) AccountTxnsCount(ctx context.Context, f TxnFilter) (models.CountRow, error) {
	if f.Contradictory() {
		return models.CountRow{}, nil
	}

	// Counts cover the whole filtered set, never a cursor suffix.
	f.Cursor = 0

	return db.gatedCount(ctx, func(b *query.Builder) string {
		return accountTxnKeysSQL(&f, b)
	})
}

// txnWhere is the chain-wide listing predicate (block, directional,
// date, and action filters over the transactions table).
func txnWhere(f *TxnFilter) query.Expr {
	var block, from, to, cursor, after, before, actions query.Expr
	if f.BlockHash != "" {
		block = query.Eq("included_in_block_hash", f.BlockHash)
	}
	if f.From != "" {
		from = query.Eq("signer_account_id", f.From)
	}
	if f.To != "" {
		to = query.Eq("receiver_account_id", f.To)
	}
	if f.Cursor > 0 {
		cursor = query.Cmp("id", f.Order.CursorOp(), f.Cursor)
	}
	if f.AfterTimestamp > 0 {
		after = query.Cmp("block_timestamp", ">=", f.AfterTimestamp)
	}
	if f.BeforeTimestamp > 0 {
		before = query.Cmp("block_timestamp", "<", f.BeforeTimestamp)
	}
	if f.Action != "" || f.Method != "" {
		actions = query.Exists("receipts r",
			query.And(
				query.Raw("r.receipt_id = transactions.converted_into_receipt_id"),
				actionExists("r.receipt_id", f.Action, f.Method),
			))
	}
	return query.And(block, from, to, cursor, after, before, actions)
}

// Txns lists transactions chain-wide, ordered by surrogate id in the
// requested direction. The cursor resumes strictly past the id it names.
func (db *DB) Txns(ctx context.Context, f TxnFilter) ([]models.Txn, error) {
	limit, offset := f.limitOffset()
	dir := f.Order.SQL()

	b := query.NewBuilder()
	where := query.Render(b, txnWhere(&f))

	sql := fmt.Sprintf(`
		SELECT
			transactions.id,
			transactions.transaction_hash,
			transactions.included_in_block_hash,
			transactions.block_timestamp::TEXT,
			transactions.signer_account_id,
			transactions.receiver_account_id,%s
		FROM transactions
		INNER JOIN (
			SELECT transaction_hash
			FROM transactions
			WHERE %s
			ORDER BY id %s
			LIMIT %s OFFSET %s
		) AS tmp USING (transaction_hash)
		ORDER BY transactions.id %s`,
		txnAggregateColumns, where, dir, b.Bind(limit), b.Bind(offset), dir)

	rows, err := db.Querier.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("query txns: %w", err)
	}
	defer rows.Close()

	return scanTxnRows(rows)
}

// TxnsCount counts the chain-wide listing. An unfiltered request skips
// straight to the planner's whole-table estimate; a filtered one goes
// through the cost gate like the account variant.
func (db *DB) TxnsCount(ctx context.Context, f TxnFilter) (models.CountRow, error) {
	unfiltered := f.BlockHash == "" && f.From == "" && f.To == "" &&
		f.Action == "" && f.Method == "" &&
		f.AfterTimestamp == 0 && f.BeforeTimestamp == 0

	if unfiltered {
		count, err := db.tableEstimate(ctx, "SELECT transaction_hash FROM transactions")
		if err != nil {
			return models.CountRow{}, err
		}
		return models.CountRow{Count: count}, nil
	}

	f.Cursor = 0

	return db.gatedCount(ctx, func(b *query.Builder) string {
		return `
		SELECT transaction_hash
		FROM transactions
		WHERE ` + query.Render(b, txnWhere(&f))
	})
}

// LatestTxns returns the most recent transactions with their deposit
// aggregate, for the cached home feed.
func (db *DB) LatestTxns(ctx context.Context, limit int) ([]models.Txn, error) {
	sql := `
		SELECT
			transaction_hash,
			block_timestamp::TEXT,
			signer_account_id,
			receiver_account_id,
			(
				SELECT JSON_BUILD_OBJECT('deposit', COALESCE(SUM((args ->> 'deposit')::NUMERIC), 0)::TEXT)
				FROM action_receipt_actions
				JOIN receipts ON receipts.receipt_id = action_receipt_actions.receipt_id
				WHERE receipts.receipt_id = transactions.converted_into_receipt_id
			) AS actions_agg
		FROM transactions
		ORDER BY block_timestamp DESC, index_in_chunk DESC
		LIMIT $1`

	rows, err := db.Querier.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest txns: %w", err)
	}
	defer rows.Close()

	txns := []models.Txn{}
	for rows.Next() {
		var t models.Txn
		var actionsAgg []byte
		if err := rows.Scan(
			&t.TransactionHash,
			&t.BlockTimestamp,
			&t.SignerAccountID,
			&t.ReceiverAccountID,
			&actionsAgg,
		); err != nil {
			return nil, fmt.Errorf("scan latest txn: %w", err)
		}
		if len(actionsAgg) > 0 {
			if err := json.Unmarshal(actionsAgg, &t.ActionsAgg); err != nil {
				return nil, fmt.Errorf("unmarshal actions_agg: %w", err)
			}
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return txns, nil
}

// TxnByHash returns one transaction with its aggregates, or an empty
// slice when the hash is unknown.
func (db *DB) TxnByHash(ctx context.Context, hash string) ([]models.Txn, error) {
	sql := fmt.Sprintf(`
		SELECT
			transactions.id,
			transactions.transaction_hash,
			transactions.included_in_block_hash,
			transactions.block_timestamp::TEXT,
			transactions.signer_account_id,
			transactions.receiver_account_id,%s
		FROM transactions
		WHERE transactions.transaction_hash = $1`,
		txnAggregateColumns)

	rows, err := db.Querier.Query(ctx, sql, hash)
	if err != nil {
		return nil, fmt.Errorf("query txn: %w", err)
	}
	defer rows.Close()

	return scanTxnRows(rows)
}

// TxnsAfter returns up to limit transactions with id strictly greater
// than the given id, in ascending id order. The live feed poller follows
// the table with this.
func (db *DB) TxnsAfter(ctx context.Context, id int64, limit int) ([]models.Txn, error) {
	return db.Txns(ctx, TxnFilter{
		Cursor:  id,
		PerPage: limit,
		Order:   query.OrderAsc,
	})
}

// LatestTxnID returns the highest surrogate id in the transactions
// table, or zero for an empty table.
func (db *DB) LatestTxnID(ctx context.Context) (int64, error) {
	var id int64
	err := db.Querier.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM transactions`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("query latest txn id: %w", err)
	}
	return id, nil
}

func scanTxnRows(rows pgx.Rows) ([]models.Txn, error) {
	txns := []models.Txn{}
	for rows.Next() {
		var t models.Txn
		var block, actions, actionsAgg, outcomes, outcomesAgg []byte
		if err := rows.Scan(
			&t.ID,
			&t.TransactionHash,
			&t.IncludedInBlockHash,
			&t.BlockTimestamp,
			&t.SignerAccountID,
			&t.ReceiverAccountID,
			&block,
			&actions,
			&actionsAgg,
			&outcomes,
			&outcomesAgg,
		); err != nil {
			return nil, fmt.Errorf("scan txn: %w", err)
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

func unmarshalTxnAggregates(t *models.Txn, block, actions, actionsAgg, outcomes, outcomesAgg []byte) error {
	if len(block) > 0 {
		if err := json.Unmarshal(block, &t.Block); err != nil {
			return fmt.Errorf("unmarshal block: %w", err)
		}
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &t.Actions); err != nil {
			return fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	if len(actionsAgg) > 0 {
		if err := json.Unmarshal(actionsAgg, &t.ActionsAgg); err != nil {
			return fmt.Errorf("unmarshal actions_agg: %w", err)
		}
	}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &t.Outcomes); err != nil {
			return fmt.Errorf("unmarshal outcomes: %w", err)
		}
	}
	if len(outcomesAgg) > 0 {
		if err := json.Unmarshal(outcomesAgg, &t.OutcomesAgg); err != nil {
			return fmt.Errorf("unmarshal outcomes_agg: %w", err)
		}
	}
	return nil
}
