package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/entry"
)

// CalendarOptions pick the granularity and period of a calendar view.
type CalendarOptions struct {
	Week  bool
	Month bool
	Next  int
	Prev  int
}

func AddCalendarArgs(cmd *cobra.Command, o *CalendarOptions) {
	cmd.Flags().BoolVarP(&o.Week, "week", "w", false, "Show one week.")
	cmd.Flags().BoolVarP(&o.Month, "month", "m", false, "Show one month (default).")
	cmd.Flags().IntVar(&o.Next, "next", 0, "Move forward this many periods.")
	cmd.Flags().IntVar(&o.Prev, "prev", 0, "Move back this many periods.")
}

// Granularity returns the requested granularity, month unless --week.
func (o *CalendarOptions) Granularity() calendar.Granularity {
	if o.Week && !o.Month {
		return calendar.Week
	}
	return calendar.Month
}

// Apply shifts v by --next and --prev.
func (o *CalendarOptions) Apply(v calendar.View) calendar.View {
	return v.WithGranularity(o.Granularity()).Shift(o.Next - o.Prev)
}

// View builds the starting view around day, or today when day is empty,
// with the flags applied.
func (o *CalendarOptions) View(day, today entry.DateKey, weekStart time.Weekday) calendar.View {
	if day == "" {
		day = today
	}
	return o.Apply(calendar.NewView(day, o.Granularity(), weekStart))
}
