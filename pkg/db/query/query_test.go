package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderBind(t *testing.T) {
	b := NewBuilder()

	require.Equal(t, "$1", b.Bind("alice.near"))
	require.Equal(t, "$2", b.Bind(int64(42)))
	require.Equal(t, []any{"alice.near", int64(42)}, b.Args())
}

func TestInlineBuilderQuotesLiterals(t *testing.T) {
	b := NewInlineBuilder()

	require.Equal(t, "'alice.near'", b.Bind("alice.near"))
	require.Equal(t, "42", b.Bind(int64(42)))
	require.Equal(t, "3.5", b.Bind(3.5))
	require.Equal(t, "TRUE", b.Bind(true))
	require.Empty(t, b.Args())
}

func TestInlineBuilderEscapesQuotes(t *testing.T) {
	b := NewInlineBuilder()

	require.Equal(t, "'it''s.near'", b.Bind("it's.near"))
}

func TestAndSkipsNilExprs(t *testing.T) {
	b := NewBuilder()
	e := And(nil, Eq("a", 1), nil, Eq("b", 2))

	require.Equal(t, "(a = $1 AND b = $2)", e(b))
	require.Equal(t, []any{1, 2}, b.Args())
}

func TestAndSingleExprUnparenthesized(t *testing.T) {
	b := NewBuilder()
	e := And(nil, Eq("a", 1), nil)

	require.Equal(t, "a = $1", e(b))
}

func TestAndEmptyRendersTrue(t *testing.T) {
	b := NewBuilder()

	require.Equal(t, "TRUE", And()(b))
	require.Equal(t, "TRUE", And(nil, nil)(b))
	require.Equal(t, "TRUE", Render(b, nil))
}

func TestOrParenthesizes(t *testing.T) {
	b := NewBuilder()
	e := Or(Eq("x", "a"), Eq("y", "b"))

	require.Equal(t, "(x = $1 OR y = $2)", e(b))
}

func TestExists(t *testing.T) {
	b := NewBuilder()
	e := Exists("actions a", Eq("a.kind", "TRANSFER"))

	require.Equal(t, "EXISTS (SELECT 1 FROM actions a WHERE a.kind = $1)", e(b))
}

func TestCmp(t *testing.T) {
	b := NewBuilder()

	require.Equal(t, "ts >= $1", Cmp("ts", ">=", int64(100))(b))
	require.Equal(t, "ts < $2", Cmp("ts", "<", int64(200))(b))
}

func TestOrderSQL(t *testing.T) {
	require.Equal(t, "ASC", OrderAsc.SQL())
	require.Equal(t, "DESC", OrderDesc.SQL())
}

func TestOrderCursorOpIsStrict(t *testing.T) {
	require.Equal(t, ">", OrderAsc.CursorOp())
	require.Equal(t, "<", OrderDesc.CursorOp())
}
