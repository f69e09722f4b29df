package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRow satisfies pgx.Row with canned scan values.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := r.vals[i].(type) {
		case float64:
			*(d.(*float64)) = v
		case int64:
			*(d.(*int64)) = v
		}
	}
	return nil
}

// fakeQuerier records every QueryRow call and answers from a script
// keyed by call order.
type fakeQuerier struct {
	rows    []fakeRow
	queries []string
	args    [][]any
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) error {
	return errors.New("not implemented")
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	if len(f.rows) == 0 {
		return fakeRow{err: errors.New("unexpected query")}
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

func testDB(fq *fakeQuerier) *DB {
	return &DB{
		Querier: fq,
		Logger:  zap.NewNop(),
		Gate:    GateConfig{MaxQueryCost: 1000, MaxQueryRows: 5000},
	}
}

func TestGatedCountReturnsEstimateWhenBothThresholdsExceeded(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{vals: []any{float64(2000), int64(10000)}}, // planner estimate
	}}
	db := testDB(fq)

	count, err := db.AccountTxnsCount(context.Background(), TxnFilter{Account: "alice.near"})
	require.NoError(t, err)

	require.NotNil(t, count.Cost)
	require.Equal(t, float64(2000), *count.Cost)
	require.Equal(t, int64(10000), count.Count)

	// Only the estimate query ran; the exact COUNT was never issued.
	require.Len(t, fq.queries, 1)
	require.Contains(t, fq.queries[0], "count_cost_estimate($1)")
}

func TestGatedCountRunsExactCountWhenOnlyCostExceeded(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{vals: []any{float64(2000), int64(100)}}, // cost high, rows low
		{vals: []any{int64(87)}},                 // exact count
	}}
	db := testDB(fq)

	count, err := db.AccountTxnsCount(context.Background(), TxnFilter{Account: "alice.near"})
	require.NoError(t, err)

	require.Nil(t, count.Cost)
	require.Equal(t, int64(87), count.Count)
	require.Len(t, fq.queries, 2)
	require.Contains(t, fq.queries[1], "SELECT COUNT(*) FROM (")
}

func TestGatedCountRunsExactCountWhenOnlyRowsExceeded(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{vals: []any{float64(10), int64(10000)}}, // cost low, rows high
		{vals: []any{int64(9876)}},
	}}
	db := testDB(fq)

	count, err := db.AccountTxnsCount(context.Background(), TxnFilter{Account: "alice.near"})
	require.NoError(t, err)

	require.Nil(t, count.Cost)
	require.Equal(t, int64(9876), count.Count)
}

func TestGatedCountEstimateTextCarriesInlineLiterals(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{vals: []any{float64(1), int64(1)}},
		{vals: []any{int64(0)}},
	}}
	db := testDB(fq)

	_, err := db.AccountTxnsCount(context.Background(), TxnFilter{Account: "alice.near"})
	require.NoError(t, err)

	// The estimate function receives the key query as its only bind
	// argument, with the filter values already inlined as literals.
	require.Len(t, fq.args[0], 1)
	estimateText, ok := fq.args[0][0].(string)
	require.True(t, ok)
	require.Contains(t, estimateText, "'alice.near'")
	require.NotContains(t, estimateText, "$2")

	// The exact count binds normally.
	require.Equal(t, []any{"ACTION", "alice.near", "alice.near"}, fq.args[1])
}

func TestGatedCountEstimateError(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{err: errors.New("function count_cost_estimate does not exist")},
	}}
	db := testDB(fq)

	_, err := db.AccountTxnsCount(context.Background(), TxnFilter{Account: "alice.near"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cost estimate")
}

func TestAccountCountsShortCircuitContradictoryFilters(t *testing.T) {
	fq := &fakeQuerier{}
	db := testDB(fq)
	f := TxnFilter{Account: "alice.near", From: "bob.near", To: "carol.near"}

	count, err := db.AccountTxnsCount(context.Background(), f)
	require.NoError(t, err)
	require.Nil(t, count.Cost)
	require.Zero(t, count.Count)

	count, err = db.AccountReceiptsCount(context.Background(), f)
	require.NoError(t, err)
	require.Zero(t, count.Count)

	require.Empty(t, fq.queries)
}

func TestTxnsCountUnfilteredUsesTableEstimate(t *testing.T) {
	fq := &fakeQuerier{rows: []fakeRow{
		{vals: []any{int64(123456789)}},
	}}
	db := testDB(fq)

	count, err := db.TxnsCount(context.Background(), TxnFilter{})
	require.NoError(t, err)

	require.Nil(t, count.Cost)
	require.Equal(t, int64(123456789), count.Count)
	require.Len(t, fq.queries, 1)
	require.Contains(t, fq.queries[0], "count_estimate($1)")
}
