package printers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
)

type PrettyPrint struct {
	ShowID bool
	Msgs   *i18n.Printer
	Out    io.Writer
	// Width wraps entry text, 80 when zero.
	Width int
}

const (
	idWidth      = 8
	defaultWidth = 80
)

var (
	spacing = strings.Repeat(" ", idWidth+2)
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) msgs() *i18n.Printer {
	if pp.Msgs != nil {
		return pp.Msgs
	}
	return i18n.New("en")
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintln(pp.out(), " - "+pp.msgs().Sprintf(i18n.MsgEntryCount, count))
}

// Day prints the title of day followed by its entries.
func (pp *PrettyPrint) Day(day entry.DateKey, entries ...*entry.Entry) {
	pp.TitleWithCount(pp.msgs().Sprintf(i18n.MsgDayTitle, pp.msgs().DayTitle(day)), len(entries))
	pp.Entries(entries...)
}

// Entries prints one line per entry, newest first as given.
func (pp *PrettyPrint) Entries(entries ...*entry.Entry) {
	w := pp.out()
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		if pp.ShowID {
			_, _ = f.Fprint(w, spacing)
		}
		_, _ = f.Fprintf(w, " %s\n\n", pp.msgs().Sprintf(i18n.MsgNoMemories))
		return
	}

	t := color.New()
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	f := color.New(color.Faint)
	img := color.New(color.FgCyan)

	for _, e := range entries {
		if pp.ShowID {
			id := e.ID.String()
			_, _ = y.Fprint(w, id)
			if pad := len(spacing) - len(id); pad > 0 {
				_, _ = y.Fprint(w, strings.Repeat(" ", pad))
			} else {
				_, _ = y.Fprint(w, " ")
			}
		}
		if e.HasImage() {
			_, _ = img.Fprint(w, "[img] ")
		}
		_, _ = t.Fprint(w, pp.wrap(e.Text))
		if at := pp.msgs().CreatedAt(e.CreatedAt); at != "" {
			_, _ = f.Fprintf(w, "  %s", at)
		}
		_, _ = t.Fprintln(w, "")
	}
	_, _ = t.Fprintln(w, "")
}

// wrap folds long text, indenting continuation lines under the first.
func (pp *PrettyPrint) wrap(text string) string {
	width := pp.Width
	if width <= 0 {
		width = defaultWidth
	}
	margin := 0
	if pp.ShowID {
		margin = len(spacing)
	}
	if width-margin < 20 {
		return text
	}
	lines := strings.SplitN(wordwrap.String(text, width-margin), "\n", 2)
	if len(lines) == 1 {
		return lines[0]
	}
	return lines[0] + "\n" + indent.String(lines[1], uint(margin))
}

// Counts prints the days of month that have entries and how many.
func (pp *PrettyPrint) Counts(month entry.MonthKey, counts entry.CountMap) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	_, _ = bold.Fprintln(pp.out(), pp.msgs().MonthTitle(month))

	tbl := uitable.New()
	tbl.Separator = "  "
	days := make([]entry.DateKey, 0, len(counts))
	for day, n := range counts {
		if n > 0 && month.Contains(day) {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	for _, day := range days {
		tbl.AddRow(pp.msgs().LongDayTitle(day), counts[day])
	}
	tbl.AddRow(faint.Sprint("="), faint.Sprint(counts.Total()))
	tbl.RightAlign(1)

	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = fmt.Fprintln(pp.out(), "")
}
