// Package calendar computes which calendar days a week or month view shows.
//
// Everything here is pure date arithmetic over entry.DateKey values. Days are
// handled as midnight UTC so the results never depend on the local zone or
// on daylight saving transitions.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"tableflip.dev/diary/pkg/entry"
)

// Granularity is the span of one view period.
type Granularity int

const (
	Week Granularity = iota
	Month
)

func (g Granularity) String() string {
	switch g {
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("granularity(%d)", int(g))
}

// ParseGranularity accepts "week" or "month".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "week", "w":
		return Week, nil
	case "month", "m":
		return Month, nil
	}
	return Week, fmt.Errorf("calendar: unknown granularity %q", s)
}

// ParseWeekday accepts full or abbreviated English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Sunday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 2 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("calendar: unknown weekday %q", s)
}

// VisibleRange returns the ordered days shown for ref at granularity g.
//
// Week yields the 7 days containing ref starting on weekStart. Month yields
// every day of ref's month padded at both ends to whole weeks, so the length
// is always a multiple of 7.
func VisibleRange(ref time.Time, g Granularity, weekStart time.Weekday) []entry.DateKey {
	day := midnight(ref)
	var from, to time.Time
	switch g {
	case Month:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		from = startOfWeek(first, weekStart)
		to = startOfWeek(last, weekStart).AddDate(0, 0, 6)
	default:
		from = startOfWeek(day, weekStart)
		to = from.AddDate(0, 0, 6)
	}

	days := make([]entry.DateKey, 0, 42)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, entry.KeyOf(d))
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func startOfWeek(day time.Time, weekStart time.Weekday) time.Time {
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// DaysIn returns the number of days in the month containing t.
func DaysIn(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// AddMonths shifts t by n months, clamping the day so January 31 plus one
// month is the last day of February rather than early March.
func AddMonths(t time.Time, n int) time.Time {
	day := midnight(t)
	first := time.Date(day.Year(), day.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	d := day.Day()
	if last := DaysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
