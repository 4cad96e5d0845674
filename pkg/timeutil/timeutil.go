// Package timeutil provides date helpers for the risk pipeline.
// Assessments are keyed by calendar date, and the raw event tables are read
// through trailing windows (30/60/90 days), so all cutoffs are computed from
// the start of the run day in the institute's timezone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DateLayout is the canonical date-only format used in assessment keys.
const DateLayout = "2006-01-02"

// StartOfDay returns the start of the day (00:00:00) of t in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of the day of t in its location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// DateString formats t as a date-only string (YYYY-MM-DD).
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date-only string in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// WindowStart returns the cutoff for a trailing window of the given number of
// days ending at t. Events on or after the cutoff are inside the window.
func WindowStart(t time.Time, days int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -days)
}

// SameDate reports whether two instants fall on the same calendar date
// in the location of a.
func SameDate(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysAgo returns the start of the day n days before t.
func DaysAgo(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -n)
}
