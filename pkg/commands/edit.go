package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/runner/edit"
)

func addEdit(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	on := &options.OnOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "edit ID text",
		Short: "Replace the text of a memory.",
		Long: `Replace the text of a memory. The image, if any, is kept.
Find ids with "diary get --show-id".`,
		Example: `
diary edit 12 walked along the river at dusk
diary edit 7 --on 2024-3-5 coffee with mom
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires an id and the new text")
			}
			return nil
		},
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
				return oo.HandleError(oo.Localize(err, i18n.MsgUpdateFailed))
			}
			s := edit.Edit{
				ShowID: io.ShowID,
				JSON:   oo.JSON,
				Day:    day,
				ID:     entry.ID(args[0]),
				Text:   strings.Join(args[1:], " "),
				Client: e.client,
				Msgs:   e.msgs,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgUpdateFailed))
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
