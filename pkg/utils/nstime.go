package utils

import (
	"fmt"
	"strconv"
	"time"
)

// dateLayout is the wire format of date filters (UTC calendar dates).
const dateLayout = "2006-01-02"

// ParseDate parses a strict YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// AfterDateNanos returns the inclusive lower bound for an after_date
// filter: the first nanosecond of the day following the given date.
func AfterDateNanos(d time.Time) int64 {
	return d.AddDate(0, 0, 1).UnixNano()
}

// BeforeDateNanos returns the exclusive upper bound for a before_date
// filter: the first nanosecond of the given date.
func BeforeDateNanos(d time.Time) int64 {
	return d.UnixNano()
}

// DayStartNanos returns the first nanosecond of the given date's day.
func DayStartNanos(d time.Time) int64 {
	return d.UnixNano()
}

// FormatNanos renders a nanosecond timestamp string as a UTC
// "YYYY-MM-DD HH:MM:SS" display value. Unparseable input comes back
// unchanged so the raw value still reaches the row.
func FormatNanos(ns string) string {
	n, err := strconv.ParseInt(ns, 10, 64)
	if err != nil {
		return ns
	}
	return time.Unix(0, n).UTC().Format("2006-01-02 15:04:05")
}
