package edit

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Edit replaces the text of an entry on a day.
type Edit struct {
	ShowID bool
	JSON   bool
	Day    entry.DateKey
	ID     entry.ID
	Text   string

	Client daylog.Client
	Msgs   *i18n.Printer
	Out    io.Writer
}

func (n *Edit) Do(ctx context.Context) error {
	if n.Client == nil {
		return errors.New("can not edit, no client")
	}
	if n.Day == "" {
		n.Day = entry.Today()
	}

	c := daylog.New(n.Client, daylog.WithPrinter(n.Msgs))
	if err := c.Select(ctx, n.Day); err != nil {
		return err
	}
	if err := c.StartEdit(n.ID); err != nil {
		return err
	}
	if err := c.SetDraft(n.Text); err != nil {
		return err
	}
	updated, err := c.SaveEdit(ctx)
	if err != nil {
		return err
	}

	if n.JSON {
		return printers.JSON(n.Out, updated)
	}
	snap := c.Snapshot()
	pp := printers.PrettyPrint{ShowID: n.ShowID, Msgs: n.Msgs, Out: n.Out}
	pp.NewLine()
	pp.Day(snap.Day, snap.Entries...)
	return nil
}
