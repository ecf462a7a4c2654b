package grid

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/diary/pkg/counts"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Counts prints the per-day entry counts of one month.
type Counts struct {
	JSON  bool
	Month entry.MonthKey

	Fetcher counts.Fetcher
	Msgs    *i18n.Printer
	Out     io.Writer
}

func (n *Counts) Do(ctx context.Context) error {
	if n.Fetcher == nil {
		return errors.New("can not count, no client")
	}
	if n.Month == "" {
		n.Month = entry.Today().Month()
	}

	got, err := n.Fetcher.Counts(ctx, n.Month)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(n.Out, got)
	}
	pp := printers.PrettyPrint{Msgs: n.Msgs, Out: n.Out}
	pp.NewLine()
	pp.Counts(n.Month, got)
	return nil
}
