package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	agoPattern = regexp.MustCompile(`^\s*(\d+)\s*(\pL+)`)
	unitDays   = map[string]int{
		"d":     1,
		"day":   1,
		"days":  1,
		"일":     1,
		"w":     7,
		"wk":    7,
		"wks":   7,
		"week":  7,
		"weeks": 7,
		"주":     7,
	}
)

// ParseAgo parses a day offset into the past such as "3d", "1w2d",
// "2 weeks ago" or "3일 전" and returns it as a number of days.
func ParseAgo(input string) (int, error) {
	remaining := strings.ToLower(strings.TrimSpace(input))
	remaining = strings.TrimSpace(strings.TrimSuffix(remaining, "ago"))
	remaining = strings.TrimSpace(strings.TrimSuffix(remaining, "전"))
	if remaining == "" {
		return 0, fmt.Errorf("invalid day offset %q", input)
	}

	total := 0
	for len(remaining) > 0 {
		matches := agoPattern.FindStringSubmatch(remaining)
		if len(matches) != 3 {
			return 0, fmt.Errorf("invalid day offset segment %q", strings.TrimSpace(remaining))
		}
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid day offset value %q: %w", matches[1], err)
		}
		days, ok := unitDays[matches[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported day offset unit %q", matches[2])
		}
		total += value * days
		remaining = strings.TrimSpace(remaining[len(matches[0]):])
	}
	return total, nil
}

// FormatAgo renders days with week and day tokens, "0d" for zero.
func FormatAgo(days int) string {
	if days <= 0 {
		return "0d"
	}
	var b strings.Builder
	if w := days / 7; w > 0 {
		fmt.Fprintf(&b, "%dw", w)
	}
	if d := days % 7; d > 0 {
		fmt.Fprintf(&b, "%dd", d)
	}
	return b.String()
}
