package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/runner/grid"
)

func addCalendar(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	on := &options.OnOptions{}
	co := &options.CalendarOptions{}

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month or week with the number of memories per day.",
		Example: `
diary calendar
diary calendar --week
diary cal --prev 1
diary cal --on 2024-3-5 --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			day, err := on.GetOn()
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			defer e.close()
			oo.Msgs = e.msgs
			if err := e.gate.Require(); err != nil {
				return oo.HandleError(oo.Localize(err, i18n.MsgCountsFailed))
			}

			today := entry.Today()
			s := grid.Calendar{
				JSON:    oo.JSON,
				View:    co.View(day, today, e.weekStart()),
				Today:   today,
				Fetcher: e.client,
				Msgs:    e.msgs,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgCountsFailed))
		},
	}

	options.AddCalendarArgs(cmd, co)
	options.AddOnArgs(cmd, on)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addCounts(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	var month string

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "List the days of a month that have memories.",
		Example: `
diary counts
diary counts --month 2024-03
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			var m entry.MonthKey
			if month != "" {
				var err error
				if m, err = entry.ParseMonthKey(month); err != nil {
					return err
				}
			}
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			defer e.close()
			oo.Msgs = e.msgs
			if err := e.gate.Require(); err != nil {
				return oo.HandleError(oo.Localize(err, i18n.MsgCountsFailed))
			}
			s := grid.Counts{
				JSON:    oo.JSON,
				Month:   m,
				Fetcher: e.client,
				Msgs:    e.msgs,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgCountsFailed))
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM, this month when empty.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
