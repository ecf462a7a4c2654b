package commands

import (
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/runner/remove"
)

func addDelete(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	on := &options.OnOptions{}
	io := &options.IDOptions{}
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a memory after confirmation.",
		Example: `
diary delete 12
diary rm 7 --on yesterday --yes
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
				return oo.HandleError(oo.Localize(err, i18n.MsgDeleteFailed))
			}
			s := remove.Remove{
				ShowID: io.ShowID,
				JSON:   oo.JSON,
				Day:    day,
				ID:     entry.ID(args[0]),
				Yes:    yes || oo.JSON,
				Client: e.client,
				Msgs:   e.msgs,
				In:     os.Stdin,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgDeleteFailed))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation.")
	options.AddOnArgs(cmd, on)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
