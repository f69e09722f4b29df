// Package query builds parameterized SQL predicates from composable
// expression nodes. Optional filters combine with And/Or/Exists instead of
// string concatenation; values always go through bind placeholders unless
// the builder is in inline mode (used only for planner cost estimates,
// where the extended protocol cannot carry parameters).
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Order is a sort direction for listing queries.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// SQL returns the ORDER BY keyword for the direction.
func (o Order) SQL() string {
	if o == OrderDesc {
		return "DESC"
	}
	return "ASC"
}

// CursorOp returns the comparison operator that resumes a page after the
// cursor id in this direction. Strictly > or <, never >= or <=, so rows
// are neither repeated nor skipped across pages.
func (o Order) CursorOp() string {
	if o == OrderDesc {
		return "<"
	}
	return ">"
}

// Builder accumulates positional bind parameters while expressions render.
type Builder struct {
	inline bool
	args   []any
}

// NewBuilder returns a builder that renders $n placeholders.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewInlineBuilder returns a builder that renders quoted literals instead
// of placeholders. The resulting SQL can be handed to the store's planner
// estimate function as plain text.
func NewInlineBuilder() *Builder {
	return &Builder{inline: true}
}

// Bind registers a value and returns its placeholder (or quoted literal).
func (b *Builder) Bind(v any) string {
	if b.inline {
		return quoteLiteral(v)
	}
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// Args returns the bind parameters in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

func quoteLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(t), "'", "''") + "'"
	}
}

// Expr is one boolean predicate node. A nil Expr means "no constraint" and
// is skipped by And/Or.
type Expr func(b *Builder) string

// Eq renders col = value.
func Eq(col string, v any) Expr {
	return func(b *Builder) string { return col + " = " + b.Bind(v) }
}

// Cmp renders col <op> value for the comparison operators.
func Cmp(col, op string, v any) Expr {
	return func(b *Builder) string { return col + " " + op + " " + b.Bind(v) }
}

// Raw embeds a fixed SQL fragment. The fragment must not contain values.
func Raw(sql string) Expr {
	return func(*Builder) string { return sql }
}

// And joins the non-nil expressions with AND. With no constraints it
// renders TRUE so the node stays composable.
func And(exprs ...Expr) Expr {
	return join("AND", exprs)
}

// Or joins the non-nil expressions with OR, parenthesized.
func Or(exprs ...Expr) Expr {
	return join("OR", exprs)
}

func join(op string, exprs []Expr) Expr {
	return func(b *Builder) string {
		var parts []string
		for _, e := range exprs {
			if e != nil {
				parts = append(parts, e(b))
			}
		}
		switch len(parts) {
		case 0:
			return "TRUE"
		case 1:
			return parts[0]
		default:
			return "(" + strings.Join(parts, " "+op+" ") + ")"
		}
	}
}

// Exists renders EXISTS (SELECT 1 FROM <from> WHERE <where>).
func Exists(from string, where Expr) Expr {
	return func(b *Builder) string {
		if where == nil {
			where = Raw("TRUE")
		}
		return "EXISTS (SELECT 1 FROM " + from + " WHERE " + where(b) + ")"
	}
}

// Render evaluates the expression against the builder, treating nil as
// the unconstrained predicate.
func Render(b *Builder, e Expr) string {
	if e == nil {
		return "TRUE"
	}
	return e(b)
}
