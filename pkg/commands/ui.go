package commands

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/counts"
	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	teaui "tableflip.dev/diary/pkg/runner/tea"
)

func addUI(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	co := &options.CalendarOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the calendar and the day's memories side by side.",
		Long: `Open the calendar and the day's memories side by side.

Press ? inside for keys. When no session is stored the UI asks to log in first.`,
		Example: `
diary ui
diary ui --week --on 2024-3-5
diary ui --prev 2
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("ui needs a terminal, try diary get or diary calendar")
			}
			day, err := on.GetOn()
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			v := co.View(day, entry.Today(), e.weekStart())
			ctrl := daylog.New(e.client, daylog.WithPrinter(e.msgs), daylog.WithLogger(e.log.Named("daylog")))
			return teaui.Run(cmd.Context(), teaui.Deps{
				Controller:  ctrl,
				Counts:      counts.New(e.client),
				Gate:        e.gate,
				Auth:        e.client,
				Msgs:        e.msgs,
				Log:         e.log.Named("ui"),
				Granularity: v.Granularity,
				WeekStart:   e.weekStart(),
				Day:         v.Ref,
			})
		},
	}

	options.AddCalendarArgs(cmd, co)
	options.AddOnArgs(cmd, on)
	topLevel.AddCommand(cmd)
}
