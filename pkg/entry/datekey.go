package entry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	layoutDate  = "2006-01-02"
	layoutMonth = "2006-01"
)

// DateKey identifies a calendar day as YYYY-MM-DD. It is built from calendar
// fields, never from a display format, so it does not depend on locale.
type DateKey string

// MonthKey identifies a calendar month as YYYY-MM.
type MonthKey string

// KeyOf returns the day key of t in t's own location.
func KeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// Today returns the key for the current local day.
func Today() DateKey {
	return KeyOf(time.Now())
}

// ParseDateKey validates s as YYYY-MM-DD. A longer ISO timestamp is accepted
// and truncated to its date part.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(layoutDate) && (s[len(layoutDate)] == 'T' || s[len(layoutDate)] == ' ') {
		s = s[:len(layoutDate)]
	}
	t, err := time.Parse(layoutDate, s)
	if err != nil {
		return "", fmt.Errorf("entry: invalid date %q, want YYYY-MM-DD", s)
	}
	return KeyOf(t), nil
}

// MustDateKey is ParseDateKey for literals.
func MustDateKey(s string) DateKey {
	k, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Time returns midnight UTC of the day. Calendar arithmetic is done in UTC so
// daylight saving transitions never skip or repeat a day.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(layoutDate, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether k is a well formed day key.
func (k DateKey) Valid() bool {
	_, err := time.Parse(layoutDate, string(k))
	return err == nil
}

// AddDays shifts the key by n days.
func (k DateKey) AddDays(n int) DateKey {
	return KeyOf(k.Time().AddDate(0, 0, n))
}

// Month returns the month the day belongs to.
func (k DateKey) Month() MonthKey {
	if len(k) < len(layoutMonth) {
		return ""
	}
	return MonthKey(k[:len(layoutMonth)])
}

func (k DateKey) String() string {
	return string(k)
}

func (k *DateKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*k = ""
		return nil
	}
	parsed, err := ParseDateKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MonthOf returns the month key of t in t's own location.
func MonthOf(t time.Time) MonthKey {
	y, m, _ := t.Date()
	return MonthKey(fmt.Sprintf("%04d-%02d", y, int(m)))
}

// ParseMonthKey validates s as YYYY-MM.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(layoutMonth, s)
	if err != nil {
		return "", fmt.Errorf("entry: invalid month %q, want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// First returns the first day of the month at midnight UTC.
func (m MonthKey) First() time.Time {
	t, err := time.Parse(layoutMonth, string(m))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Contains reports whether day falls inside the month.
func (m MonthKey) Contains(day DateKey) bool {
	return m != "" && day.Month() == m
}

func (m MonthKey) String() string {
	return string(m)
}

// SortMonths returns the distinct non-empty months in ascending order.
func SortMonths(months []MonthKey) []MonthKey {
	sorted := append([]MonthKey(nil), months...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := make([]MonthKey, 0, len(sorted))
	for _, m := range sorted {
		if m == "" || (len(out) > 0 && out[len(out)-1] == m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CountMap maps a day to its number of entries. Missing days count as zero.
type CountMap map[DateKey]int

// Get returns the count for day, zero when absent.
func (c CountMap) Get(day DateKey) int {
	if c == nil {
		return 0
	}
	return c[day]
}

// Clone copies the map.
func (c CountMap) Clone() CountMap {
	out := make(CountMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Total sums all counts.
func (c CountMap) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
