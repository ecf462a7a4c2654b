package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/runner/auth"
)

func addLogin(topLevel *cobra.Command) {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session.",
		Example: `
diary login
diary login --email me@example.com
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()
			s := auth.Login{
				Email:    email,
				Password: password,
				Gate:     e.gate,
				Auth:     e.client,
				Msgs:     e.msgs,
				In:       os.Stdin,
				Out:      color.Output,
			}
			return s.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email, prompted when empty.")
	cmd.Flags().StringVar(&password, "password", "", "Account password, prompted without echo when empty.")

	topLevel.AddCommand(cmd)
}

func addSignup(topLevel *cobra.Command) {
	var email, password, nickname string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account. Log in afterwards.",
		Example: `
diary signup --email me@example.com --nickname me
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()
			s := auth.Signup{
				Email:    email,
				Password: password,
				Nickname: nickname,
				Gate:     e.gate,
				Auth:     e.client,
				Msgs:     e.msgs,
				In:       os.Stdin,
				Out:      color.Output,
			}
			return s.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email, prompted when empty.")
	cmd.Flags().StringVar(&password, "password", "", "Account password, prompted without echo when empty.")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name, prompted when empty.")

	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()
			s := auth.Logout{Gate: e.gate, Msgs: e.msgs, Out: color.Output}
			return s.Do(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}
