package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/runner/get"
)

func addGet(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	on := &options.OnOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "get",
		Aliases: []string{"list", "ls"},
		Short:   "List the memories of a day, newest first.",
		Example: `
diary get
diary get --on yesterday
diary get --on 2024-3-5 --show-id
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
				return oo.HandleError(oo.Localize(err, i18n.MsgLoadFailed))
			}
			s := get.Get{
				ShowID: io.ShowID,
				JSON:   oo.JSON,
				Day:    day,
				Client: e.client,
				Msgs:   e.msgs,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgLoadFailed))
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
