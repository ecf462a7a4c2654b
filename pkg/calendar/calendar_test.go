package calendar

import (
	"testing"
	"time"

	"tableflip.dev/diary/pkg/entry"
)

func eachDay(t *testing.T, from, to string, fn func(entry.DateKey)) {
	t.Helper()
	start, end := entry.MustDateKey(from), entry.MustDateKey(to)
	for d := start; d <= end; d = d.AddDays(1) {
		fn(d)
	}
}

func assertContiguous(t *testing.T, days []entry.DateKey) {
	t.Helper()
	for i := 1; i < len(days); i++ {
		if days[i] != days[i-1].AddDays(1) {
			t.Fatalf("gap or disorder between %s and %s", days[i-1], days[i])
		}
	}
}

func contains(days []entry.DateKey, day entry.DateKey) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func TestWeekRangeProperties(t *testing.T) {
	for _, ws := range []time.Weekday{time.Sunday, time.Monday, time.Saturday} {
		eachDay(t, "2023-12-01", "2025-01-31", func(d entry.DateKey) {
			days := VisibleRange(d.Time(), Week, ws)
			if len(days) != 7 {
				t.Fatalf("%s: expected 7 days, got %d", d, len(days))
			}
			assertContiguous(t, days)
			if !contains(days, d) {
				t.Fatalf("%s: range %v misses the reference day", d, days)
			}
			if got := days[0].Time().Weekday(); got != ws {
				t.Fatalf("%s: week starts on %s, want %s", d, got, ws)
			}
			for _, other := range days {
				again := VisibleRange(other.Time(), Week, ws)
				if again[0] != days[0] || again[6] != days[6] {
					t.Fatalf("%s and %s share a week but produce different ranges", d, other)
				}
			}
		})
	}
}

func TestMonthRangeProperties(t *testing.T) {
	for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
		eachDay(t, "2024-01-01", "2025-12-31", func(d entry.DateKey) {
			days := VisibleRange(d.Time(), Month, ws)
			if len(days)%7 != 0 {
				t.Fatalf("%s: length %d is not a multiple of 7", d, len(days))
			}
			assertContiguous(t, days)
			month := d.Month()
			first := entry.KeyOf(month.First())
			last := entry.KeyOf(month.First().AddDate(0, 1, -1))
			if !contains(days, first) || !contains(days, last) {
				t.Fatalf("%s: range %s..%s does not cover %s", d, days[0], days[len(days)-1], month)
			}
			if days[0] > first || days[len(days)-1] < last {
				t.Fatalf("%s: month not fully contained", d)
			}
			if len(days) > 42 {
				t.Fatalf("%s: grid has more than six weeks", d)
			}
		})
	}
}

func TestMonthRangeSundayStart(t *testing.T) {
	// March 2024 starts on a Friday and ends on a Sunday.
	days := VisibleRange(time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local), Month, time.Sunday)
	if days[0] != "2024-02-25" {
		t.Fatalf("expected grid to start 2024-02-25, got %s", days[0])
	}
	if days[len(days)-1] != "2024-04-06" {
		t.Fatalf("expected grid to end 2024-04-06, got %s", days[len(days)-1])
	}
	if len(days) != 42 {
		t.Fatalf("expected 6 weeks, got %d days", len(days))
	}
}

func TestRangeIgnoresZoneOfReference(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no zoneinfo: %v", err)
	}
	// DST starts 2024-03-10 in New York.
	ref := time.Date(2024, time.March, 10, 1, 0, 0, 0, ny)
	days := VisibleRange(ref, Week, time.Sunday)
	if days[0] != "2024-03-10" || days[6] != "2024-03-16" {
		t.Fatalf("unexpected dst week %v", days)
	}
	assertContiguous(t, days)
}

func TestNavigationShiftsWholePeriods(t *testing.T) {
	v := NewView("2024-03-31", Week, time.Sunday)
	if got := v.Next().Ref; got != "2024-04-07" {
		t.Fatalf("next week: got %s", got)
	}
	if got := v.Previous().Ref; got != "2024-03-24" {
		t.Fatalf("previous week: got %s", got)
	}
	if v.Ref != "2024-03-31" {
		t.Fatalf("navigation mutated the receiver")
	}

	m := NewView("2024-01-31", Month, time.Sunday)
	if got := m.Next().Ref; got != "2024-02-29" {
		t.Fatalf("next month should clamp to leap day, got %s", got)
	}
	if got := m.Next().Next().Ref; got != "2024-03-29" {
		t.Fatalf("two months on: got %s", got)
	}
	if got := m.Previous().Ref; got != "2023-12-31" {
		t.Fatalf("previous month: got %s", got)
	}
	if got := m.Shift(12).Ref; got != "2025-01-31" {
		t.Fatalf("a year on: got %s", got)
	}
}

func TestMonthsOfWeekSpanningBoundary(t *testing.T) {
	v := NewView("2024-03-31", Week, time.Sunday)
	months := v.CountMonths()
	if len(months) != 2 || months[0] != "2024-03" || months[1] != "2024-04" {
		t.Fatalf("expected March and April, got %v", months)
	}

	inside := NewView("2024-03-13", Week, time.Sunday)
	if got := inside.CountMonths(); len(got) != 1 || got[0] != "2024-03" {
		t.Fatalf("expected only March, got %v", got)
	}

	grid := NewView("2024-03-13", Month, time.Sunday)
	if got := grid.Months(); len(got) != 3 {
		t.Fatalf("padded grid touches three months, got %v", got)
	}
	if got := grid.CountMonths(); len(got) != 1 || got[0] != "2024-03" {
		t.Fatalf("month grid badges only its own month, got %v", got)
	}
	if grid.InPeriod("2024-02-25") || !grid.Contains("2024-02-25") {
		t.Fatalf("padding day should be visible but outside the period")
	}
}

func TestRowsAndWeekdays(t *testing.T) {
	v := NewView("2024-03-13", Month, time.Monday)
	rows := v.Rows()
	for _, row := range rows {
		if len(row) != 7 {
			t.Fatalf("row of %d days", len(row))
		}
		if row[0].Time().Weekday() != time.Monday {
			t.Fatalf("row starts on %s", row[0].Time().Weekday())
		}
	}
	wd := v.Weekdays()
	if wd[0] != time.Monday || wd[6] != time.Sunday {
		t.Fatalf("unexpected weekday order %v", wd)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"":        time.Sunday,
		"monday":  time.Monday,
		"Mon":     time.Monday,
		"sa":      time.Saturday,
		"SUNDAY ": time.Sunday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Fatalf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("funday"); err == nil {
		t.Fatalf("expected error")
	}
}
