package chain

import (
	"strings"
	"testing"

	"github.com/nearscan/explorer-api/pkg/db/query"
	"github.com/stretchr/testify/require"
)

func TestReceiptKeysSQLUnionWithoutDirection(t *testing.T) {
	f := TxnFilter{Account: "alice.near", PerPage: 25, Order: query.OrderDesc}
	b := query.NewBuilder()
	sql := receiptKeysSQL(&f, b)

	// Two per-direction sub-queries, each ordered and limited on its
	// own, unioned and re-limited.
	require.Contains(t, sql, "UNION")
	require.Equal(t, 2, strings.Count(sql, "FROM receipts r"))
	require.Equal(t, 3, strings.Count(sql, "LIMIT"))
	require.Contains(t, sql, "r.predecessor_account_id = $2")
	require.Contains(t, sql, "r.receiver_account_id = $5")
}

func TestReceiptKeysSQLIntersectWithDirection(t *testing.T) {
	f := TxnFilter{Account: "alice.near", From: "bob.near", PerPage: 25}
	b := query.NewBuilder()
	sql := receiptKeysSQL(&f, b)

	// from/to collapses the union to one directional query.
	require.NotContains(t, sql, "UNION")
	require.Equal(t, 1, strings.Count(sql, "FROM receipts r"))
	require.Contains(t, sql, "r.predecessor_account_id = $2")
	require.Contains(t, sql, "r.receiver_account_id = $3")
	require.Equal(t, []any{"ACTION", "bob.near", "alice.near", 25}, b.Args())
}

func TestReceiptKeysSQLCursor(t *testing.T) {
	f := TxnFilter{Account: "alice.near", Cursor: 777, Order: query.OrderDesc}
	b := query.NewBuilder()
	sql := receiptKeysSQL(&f, b)

	require.Contains(t, sql, "r.id < $3")
	require.Contains(t, b.Args(), int64(777))
}

func TestReceiptCountKeysSQLIgnoresCursor(t *testing.T) {
	f := TxnFilter{Account: "alice.near", Cursor: 777}
	b := query.NewBuilder()
	sql := receiptCountKeysSQL(&f, b)

	require.NotContains(t, sql, "r.id >")
	require.NotContains(t, sql, "r.id <")
	require.NotContains(t, b.Args(), int64(777))
}

func TestReceiptCountKeysSQLHasNoPaging(t *testing.T) {
	f := TxnFilter{Account: "alice.near", PerPage: 25}
	b := query.NewBuilder()
	sql := receiptCountKeysSQL(&f, b)

	require.NotContains(t, sql, "LIMIT")
	require.NotContains(t, sql, "UNION")
	require.Contains(t, sql, "(r.predecessor_account_id = $2 OR r.receiver_account_id = $3)")
}

func TestReceiptDirWhereDateBoundsUseReceiptTimestamp(t *testing.T) {
	f := TxnFilter{Account: "alice.near", AfterTimestamp: 1000, BeforeTimestamp: 2000}
	b := query.NewBuilder()
	sql := query.Render(b, receiptDirWhere(&f, query.Eq("r.predecessor_account_id", f.Account)))

	require.Contains(t, sql, "r.included_in_block_timestamp >= ")
	require.Contains(t, sql, "r.included_in_block_timestamp < ")
}
