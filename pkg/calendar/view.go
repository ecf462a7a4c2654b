package calendar

import (
	"time"

	"tableflip.dev/diary/pkg/entry"
)

// View is a navigable calendar position. It is a value: navigation returns a
// new View and never partially updates the receiver.
type View struct {
	Ref         entry.DateKey
	Granularity Granularity
	WeekStart   time.Weekday
}

// NewView returns a view of g around ref.
func NewView(ref entry.DateKey, g Granularity, weekStart time.Weekday) View {
	return View{Ref: ref, Granularity: g, WeekStart: weekStart}
}

// Range lists the visible days in ascending order.
func (v View) Range() []entry.DateKey {
	return VisibleRange(v.Ref.Time(), v.Granularity, v.WeekStart)
}

// Shift moves the reference day by n whole periods.
func (v View) Shift(n int) View {
	next := v
	switch v.Granularity {
	case Month:
		next.Ref = entry.KeyOf(AddMonths(v.Ref.Time(), n))
	default:
		next.Ref = v.Ref.AddDays(7 * n)
	}
	return next
}

// Next moves one period forward.
func (v View) Next() View {
	return v.Shift(1)
}

// Previous moves one period back.
func (v View) Previous() View {
	return v.Shift(-1)
}

// WithGranularity switches between week and month keeping the reference day.
func (v View) WithGranularity(g Granularity) View {
	v.Granularity = g
	return v
}

// Select moves the reference day. The period is recomputed around it.
func (v View) Select(day entry.DateKey) View {
	v.Ref = day
	return v
}

// First is the first visible day.
func (v View) First() entry.DateKey {
	r := v.Range()
	return r[0]
}

// Last is the last visible day.
func (v View) Last() entry.DateKey {
	r := v.Range()
	return r[len(r)-1]
}

// Contains reports whether day is visible.
func (v View) Contains(day entry.DateKey) bool {
	return day >= v.First() && day <= v.Last()
}

// InPeriod reports whether day belongs to the period itself rather than the
// padding of a month grid.
func (v View) InPeriod(day entry.DateKey) bool {
	if v.Granularity == Month {
		return v.Ref.Month().Contains(day)
	}
	return v.Contains(day)
}

// Month is the month of the reference day.
func (v View) Month() entry.MonthKey {
	return v.Ref.Month()
}

// Months lists every distinct month touched by the visible range.
func (v View) Months() []entry.MonthKey {
	var months []entry.MonthKey
	for _, d := range v.Range() {
		months = append(months, d.Month())
	}
	return entry.SortMonths(months)
}

// CountMonths lists the months whose counts the view displays. A week shows
// counts for every day so it needs each month it touches (at most two). A
// month grid only badges days of its own month; padding days are dimmed.
func (v View) CountMonths() []entry.MonthKey {
	if v.Granularity == Month {
		return []entry.MonthKey{v.Month()}
	}
	return v.Months()
}

// Rows splits the range into weeks.
func (v View) Rows() [][]entry.DateKey {
	days := v.Range()
	rows := make([][]entry.DateKey, 0, len(days)/7)
	for i := 0; i+7 <= len(days); i += 7 {
		rows = append(rows, days[i:i+7])
	}
	return rows
}

// Weekdays lists the column order starting at WeekStart.
func (v View) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 7)
	for i := range out {
		out[i] = time.Weekday((int(v.WeekStart) + i) % 7)
	}
	return out
}
