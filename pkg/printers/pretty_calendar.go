package printers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"

	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
)

// cellWidth fits "31·9+".
const cellWidth = 5

// GridOptions style a calendar grid.
type GridOptions struct {
	TitleStyle    lipgloss.Style
	HeaderStyle   lipgloss.Style
	PaddingStyle  lipgloss.Style
	DayStyle      lipgloss.Style
	EntryStyle    lipgloss.Style
	BadgeStyle    lipgloss.Style
	TodayStyle    lipgloss.Style
	SelectedStyle lipgloss.Style
}

// DefaultGridOptions returns the styling used for calendar rendering.
func DefaultGridOptions() GridOptions {
	return GridOptions{
		TitleStyle:    lipgloss.NewStyle().Bold(true),
		HeaderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
		PaddingStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		DayStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		EntryStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		BadgeStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		TodayStyle:    lipgloss.NewStyle().Underline(true),
		SelectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("0")),
	}
}

// Grid is what a calendar rendering shows.
type Grid struct {
	View     calendar.View
	Counts   entry.CountMap
	Selected entry.DateKey
	Today    entry.DateKey
}

// RenderGrid draws the title, the weekday header and one line per week.
func RenderGrid(g Grid, msgs *i18n.Printer, opts GridOptions) string {
	if msgs == nil {
		msgs = i18n.New("en")
	}
	lines := []string{opts.TitleStyle.Render(gridTitle(g.View, msgs))}

	header := make([]string, 0, 7)
	for _, wd := range g.View.Weekdays() {
		header = append(header, opts.HeaderStyle.Width(cellWidth).Render(msgs.Weekday(wd)))
	}
	lines = append(lines, strings.Join(header, " "))

	for _, row := range g.View.Rows() {
		cells := make([]string, 0, len(row))
		for _, day := range row {
			cells = append(cells, renderCell(g, day, opts))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func gridTitle(v calendar.View, msgs *i18n.Printer) string {
	if v.Granularity == calendar.Month {
		return msgs.MonthTitle(v.Month())
	}
	return fmt.Sprintf("%s - %s", msgs.DayTitle(v.First()), msgs.DayTitle(v.Last()))
}

// Badge colors run from dim for one entry to bright for nine or more.
var (
	badgeLow, _  = colorful.Hex("#875f87")
	badgeHigh, _ = colorful.Hex("#ff87d7")
)

func badgeColor(n int) string {
	if n <= 1 {
		return badgeLow.Hex()
	}
	if n > 9 {
		n = 9
	}
	return badgeLow.BlendLab(badgeHigh, float64(n-1)/8).Clamped().Hex()
}

// Badge renders a day count, "" for zero.
func Badge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 9:
		return "·9+"
	default:
		return fmt.Sprintf("·%d", n)
	}
}

func renderCell(g Grid, day entry.DateKey, opts GridOptions) string {
	num := fmt.Sprintf("%2d", day.Time().Day())
	if !g.View.InPeriod(day) {
		return opts.PaddingStyle.Width(cellWidth).Render(num)
	}

	n := g.Counts.Get(day)
	style := opts.DayStyle
	if n > 0 {
		style = opts.EntryStyle
	}
	if day == g.Today {
		style = style.Inherit(opts.TodayStyle)
	}
	if day == g.Selected {
		style = style.Inherit(opts.SelectedStyle)
	}
	badge := Badge(n)
	text := style.Render(num)
	if badge != "" {
		text += opts.BadgeStyle.Foreground(lipgloss.Color(badgeColor(n))).Render(badge)
	}
	return lipgloss.NewStyle().Width(cellWidth).Render(text)
}
