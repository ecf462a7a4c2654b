package get

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Get lists the entries of one day.
type Get struct {
	ShowID bool
	JSON   bool
	Day    entry.DateKey

	Client daylog.Client
	Msgs   *i18n.Printer
	Out    io.Writer
}

func (n *Get) Do(ctx context.Context) error {
	if n.Client == nil {
		return errors.New("can not get, no client")
	}
	if n.Day == "" {
		n.Day = entry.Today()
	}

	c := daylog.New(n.Client, daylog.WithPrinter(n.Msgs))
	if err := c.Select(ctx, n.Day); err != nil {
		return err
	}
	snap := c.Snapshot()

	if n.JSON {
		return printers.JSON(n.Out, snap.Entries)
	}
	pp := printers.PrettyPrint{ShowID: n.ShowID, Msgs: n.Msgs, Out: n.Out}
	pp.NewLine()
	pp.Day(snap.Day, snap.Entries...)
	return nil
}
