package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/timeutil"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// now is replaced in tests.
var now = time.Now

// OnOptions selects a day.
type OnOptions struct {
	OnString string
}

func AddOnArgs(cmd *cobra.Command, o *OnOptions) {
	cmd.Flags().StringVar(&o.OnString, "on", "",
		`Specify a date, example: --on="2024-3-5", --on="3/5", --on=yesterday or --on="2w ago".`)
}

// GetOn resolves the flag to a day, "" when unset.
func (o *OnOptions) GetOn() (entry.DateKey, error) {
	s := strings.ToLower(strings.TrimSpace(o.OnString))
	today := entry.KeyOf(now())
	switch s {
	case "":
		return "", nil
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}

	t, err := time.Parse(layoutISO, s)
	if err != nil {
		// Let the year be the same.
		t, err = time.Parse(layoutISOShort, s)
		if err != nil {
			days, agoErr := timeutil.ParseAgo(s)
			if agoErr != nil {
				return "", fmt.Errorf("invalid date %q, want YYYY-M-D, M/D or an offset like 3d", o.OnString)
			}
			return today.AddDays(-days), nil
		}
		return shortDate(t.Month(), t.Day(), now())
	}
	return entry.KeyOf(t), nil
}

// shortDate places month/day in the latest year where it is not in the
// future: 12/30 said on 1/3 is last year's. A day that year lacks, like 2/29
// outside leap years, is an error rather than rolling into March.
func shortDate(month time.Month, day int, ref time.Time) (entry.DateKey, error) {
	year := ref.Year()
	if month > ref.Month() || (month == ref.Month() && day > ref.Day()) {
		year--
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	if t.Month() != month || t.Day() != day {
		return "", fmt.Errorf("invalid date %d/%d, %d has no such day", int(month), day, year)
	}
	return entry.KeyOf(t), nil
}
