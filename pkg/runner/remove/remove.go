package remove

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
)

// Remove deletes an entry after confirmation.
type Remove struct {
	ShowID bool
	JSON   bool
	Day    entry.DateKey
	ID     entry.ID
	// Yes skips the confirmation prompt.
	Yes bool

	Client daylog.Client
	Msgs   *i18n.Printer
	In     io.Reader
	Out    io.Writer
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Client == nil {
		return errors.New("can not delete, no client")
	}
	if n.Day == "" {
		n.Day = entry.Today()
	}
	if n.Out == nil {
		n.Out = color.Output
	}
	msgs := n.Msgs
	if msgs == nil {
		msgs = i18n.New("en")
	}

	c := daylog.New(n.Client, daylog.WithPrinter(msgs))
	if err := c.Select(ctx, n.Day); err != nil {
		return err
	}
	if err := c.RequestDelete(n.ID); err != nil {
		return err
	}

	if !n.Yes {
		snap := c.Snapshot()
		if i := entry.IndexOf(snap.Entries, n.ID); i >= 0 {
			_, _ = fmt.Fprintf(n.Out, "%s\n", snap.Entries[i])
		}
		_, _ = fmt.Fprintf(n.Out, "%s [y/N] ", msgs.Sprintf(i18n.MsgConfirmDelete))
		if !confirmed(n.In) {
			c.CancelDelete()
			_, _ = fmt.Fprintln(n.Out, msgs.Sprintf(i18n.MsgCancelled))
			return nil
		}
	}

	id, err := c.ConfirmDelete(ctx)
	if err != nil {
		return err
	}

	if n.JSON {
		return printers.JSON(n.Out, map[string]any{"deleted": id})
	}
	snap := c.Snapshot()
	pp := printers.PrettyPrint{ShowID: n.ShowID, Msgs: msgs, Out: n.Out}
	pp.NewLine()
	pp.Day(snap.Day, snap.Entries...)
	return nil
}

func confirmed(in io.Reader) bool {
	if in == nil {
		return false
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "예", "네":
		return true
	}
	return false
}
