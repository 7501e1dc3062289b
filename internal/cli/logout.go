package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and drop the local session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		a.client.Logout(context.Background())
		PrintSuccess("Logged out")
		return nil
	},
}
