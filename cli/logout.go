package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mini-todo/config"
	"mini-todo/platform"
)

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions := platform.NewFileSessions(app.v.GetString(config.KeySessionFile))
			s, err := sessions.Load()
			if err != nil {
				return err
			}
			if s == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "not logged in (no session at %s)\n", sessions.Path())
				return nil
			}
			if err := sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged out %s (removed %s)\n", s.User.Email, sessions.Path())
			return nil
		},
	}
}
