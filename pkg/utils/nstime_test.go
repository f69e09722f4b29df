package utils

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "2024-3-15", "15-03-2024", "2024-03-15T00:00:00Z", "yesterday"} {
		_, err := ParseDate(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestAfterDateNanosIsNextDayStart(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)

	want := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC).UnixNano()
	require.Equal(t, want, AfterDateNanos(d))
}

func TestBeforeDateNanosIsDayStart(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixNano()
	require.Equal(t, want, BeforeDateNanos(d))
	require.Equal(t, want, DayStartNanos(d))
}

func TestFormatNanos(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC).UnixNano()
	require.Equal(t, "2024-03-15 09:30:45", FormatNanos(strconv.FormatInt(ts, 10)))

	// Unparseable input passes through untouched.
	require.Equal(t, "garbage", FormatNanos("garbage"))
	require.Equal(t, "", FormatNanos(""))
}
