package grid

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/counts"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Calendar prints a week or month grid with a badge per day that has
// entries.
type Calendar struct {
	JSON  bool
	View  calendar.View
	Today entry.DateKey

	Fetcher counts.Fetcher
	Msgs    *i18n.Printer
	Out     io.Writer
}

type calendarJSON struct {
	Granularity string          `json:"granularity"`
	Ref         entry.DateKey   `json:"ref"`
	Days        []entry.DateKey `json:"days"`
	Counts      entry.CountMap  `json:"counts"`
}

func (n *Calendar) Do(ctx context.Context) error {
	if n.Fetcher == nil {
		return errors.New("can not show calendar, no client")
	}
	if n.Out == nil {
		n.Out = color.Output
	}
	if n.Today == "" {
		n.Today = entry.Today()
	}

	cache := counts.New(n.Fetcher)
	if _, err := cache.Refresh(ctx, n.View.CountMonths()); err != nil {
		return err
	}
	snap := cache.Snapshot()

	if n.JSON {
		return printers.JSON(n.Out, calendarJSON{
			Granularity: n.View.Granularity.String(),
			Ref:         n.View.Ref,
			Days:        n.View.Range(),
			Counts:      snap,
		})
	}

	grid := printers.RenderGrid(printers.Grid{
		View:     n.View,
		Counts:   snap,
		Selected: n.View.Ref,
		Today:    n.Today,
	}, n.Msgs, printers.DefaultGridOptions())
	_, _ = fmt.Fprintf(n.Out, "\n%s\n\n", grid)
	return nil
}
