package add

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Add records a new entry on a day and prints the day afterwards.
type Add struct {
	ShowID bool
	JSON   bool
	Day    entry.DateKey
	Text   string
	// Image is a path to an image file to attach.
	Image string

	Client daylog.Client
	Msgs   *i18n.Printer
	Out    io.Writer
}

func (n *Add) Do(ctx context.Context) error {
	if n.Client == nil {
		return errors.New("can not add, no client")
	}
	if n.Day == "" {
		n.Day = entry.Today()
	}

	c := daylog.New(n.Client, daylog.WithPrinter(n.Msgs))
	if err := c.Select(ctx, n.Day); err != nil {
		return err
	}
	c.SetComposeText(n.Text)
	if n.Image != "" {
		dataURL, err := entry.ImageDataURL(n.Image)
		if err != nil {
			return err
		}
		c.AttachImage(dataURL)
	}
	created, err := c.Submit(ctx)
	if err != nil {
		return err
	}

	if n.JSON {
		return printers.JSON(n.Out, created)
	}
	snap := c.Snapshot()
	pp := printers.PrettyPrint{ShowID: n.ShowID, Msgs: n.Msgs, Out: n.Out}
	pp.NewLine()
	pp.Day(snap.Day, snap.Entries...)
	return nil
}
