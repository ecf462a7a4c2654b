package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/runner/add"
)

func addAdd(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	on := &options.OnOptions{}
	io := &options.IDOptions{}
	var image string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Record a memory.",
		Example: `
diary add walked along the river
diary add --on yesterday dinner with friends
diary add --image ~/Pictures/sunset.jpg
`,
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
				return oo.HandleError(oo.Localize(err, i18n.MsgCreateFailed))
			}
			s := add.Add{
				ShowID: io.ShowID,
				JSON:   oo.JSON,
				Day:    day,
				Text:   strings.Join(args, " "),
				Image:  image,
				Client: e.client,
				Msgs:   e.msgs,
			}
			err = s.Do(cmd.Context())
			return oo.HandleError(oo.Localize(err, i18n.MsgCreateFailed))
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Attach an image file.")
	options.AddOnArgs(cmd, on)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
