package handler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/nearscan/explorer-api/pkg/db/postgres/chain"
	"github.com/nearscan/explorer-api/pkg/db/query"
	"github.com/nearscan/explorer-api/pkg/utils"
)

const (
	defaultPerPage = 25
	maxPerPage     = 250
)

// parseFilter validates the shared listing parameters. Malformed input
// fails here with a message naming the parameter, before any SQL is
// built.
func parseFilter(q url.Values) (chain.TxnFilter, error) {
	f := chain.TxnFilter{
		BlockHash: q.Get("block"),
		From:      q.Get("from"),
		To:        q.Get("to"),
		Action:    q.Get("action"),
		Method:    q.Get("method"),
		PerPage:   defaultPerPage,
		Order:     query.OrderDesc,
	}

	switch v := q.Get("order"); v {
	case "", "desc":
	case "asc":
		f.Order = query.OrderAsc
	default:
		return f, fmt.Errorf("invalid order %q: expected asc or desc", v)
	}

	if v := q.Get("cursor"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("invalid cursor %q: expected a positive integer", v)
		}
		f.Cursor = n
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("invalid page %q: expected a positive integer", v)
		}
		f.Page = n
	}

	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("invalid per_page %q: expected a positive integer", v)
		}
		if n > maxPerPage {
			n = maxPerPage
		}
		f.PerPage = n
	}

	if v := q.Get("after_date"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid after_date: %w", err)
		}
		f.AfterTimestamp = utils.AfterDateNanos(d)
	}

	if v := q.Get("before_date"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid before_date: %w", err)
		}
		f.BeforeTimestamp = utils.BeforeDateNanos(d)
	}

	return f, nil
}

// parseExportRange validates the start/end dates of an export request.
// Both are required, both bounds are the first nanosecond of their day.
func parseExportRange(account string, q url.Values) (chain.ExportRange, error) {
	var r chain.ExportRange
	r.Account = account

	start := q.Get("start")
	end := q.Get("end")
	if start == "" || end == "" {
		return r, fmt.Errorf("start and end dates are required")
	}

	s, err := utils.ParseDate(start)
	if err != nil {
		return r, fmt.Errorf("invalid start: %w", err)
	}
	e, err := utils.ParseDate(end)
	if err != nil {
		return r, fmt.Errorf("invalid end: %w", err)
	}
	if e.Before(s) {
		return r, fmt.Errorf("end date is before start date")
	}

	r.StartNs = utils.DayStartNanos(s)
	r.EndNs = utils.DayStartNanos(e)
	return r, nil
}

// nextCursor returns the pagination cursor for a page of ids: the last
// id when the page is exactly full, zero (omitted from the response)
// otherwise. A partial page is definitionally the final one.
func nextCursor(lastID int64, got, perPage int) int64 {
	if got == perPage {
		return lastID
	}
	return 0
}
