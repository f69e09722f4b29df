package handler

import (
	"net/url"
	"testing"
	"time"

	"github.com/nearscan/explorer-api/pkg/db/query"
	"github.com/stretchr/testify/require"
)

func TestParseFilterDefaults(t *testing.T) {
	f, err := parseFilter(url.Values{})
	require.NoError(t, err)

	require.Equal(t, 25, f.PerPage)
	require.Equal(t, query.OrderDesc, f.Order)
	require.Zero(t, f.Cursor)
	require.Zero(t, f.Page)
}

func TestParseFilterOrder(t *testing.T) {
	f, err := parseFilter(url.Values{"order": {"asc"}})
	require.NoError(t, err)
	require.Equal(t, query.OrderAsc, f.Order)

	_, err = parseFilter(url.Values{"order": {"sideways"}})
	require.Error(t, err)
}

func TestParseFilterCursor(t *testing.T) {
	f, err := parseFilter(url.Values{"cursor": {"12345"}})
	require.NoError(t, err)
	require.Equal(t, int64(12345), f.Cursor)

	for _, bad := range []string{"0", "-5", "abc", "1.5"} {
		_, err := parseFilter(url.Values{"cursor": {bad}})
		require.Error(t, err, "cursor %q", bad)
	}
}

func TestParseFilterPerPageClamped(t *testing.T) {
	f, err := parseFilter(url.Values{"per_page": {"50"}})
	require.NoError(t, err)
	require.Equal(t, 50, f.PerPage)

	f, err = parseFilter(url.Values{"per_page": {"9999"}})
	require.NoError(t, err)
	require.Equal(t, 250, f.PerPage)

	_, err = parseFilter(url.Values{"per_page": {"0"}})
	require.Error(t, err)
}

func TestParseFilterDates(t *testing.T) {
	f, err := parseFilter(url.Values{
		"after_date":  {"2024-03-15"},
		"before_date": {"2024-03-20"},
	})
	require.NoError(t, err)

	// after_date excludes the named day: the bound is the start of the
	// following one.
	require.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC).UnixNano(), f.AfterTimestamp)
	require.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).UnixNano(), f.BeforeTimestamp)

	_, err = parseFilter(url.Values{"after_date": {"03/15/2024"}})
	require.Error(t, err)
}

func TestParseExportRange(t *testing.T) {
	r, err := parseExportRange("alice.near", url.Values{
		"start": {"2024-03-01"},
		"end":   {"2024-03-31"},
	})
	require.NoError(t, err)
	require.Equal(t, "alice.near", r.Account)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano(), r.StartNs)
	require.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC).UnixNano(), r.EndNs)
}

func TestParseExportRangeErrors(t *testing.T) {
	_, err := parseExportRange("a", url.Values{"start": {"2024-03-01"}})
	require.Error(t, err)

	_, err = parseExportRange("a", url.Values{"start": {"2024-03-31"}, "end": {"2024-03-01"}})
	require.Error(t, err)

	_, err = parseExportRange("a", url.Values{"start": {"bad"}, "end": {"2024-03-01"}})
	require.Error(t, err)
}

func TestNextCursor(t *testing.T) {
	require.Equal(t, int64(99), nextCursor(99, 25, 25))
	require.Zero(t, nextCursor(99, 24, 25))
	require.Zero(t, nextCursor(99, 0, 25))
}
