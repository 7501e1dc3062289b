package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var loginCode string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the server with your access code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		code := loginCode
		if code == "" {
			if code, err = promptLine("Access code: "); err != nil {
				return err
			}
		}

		ctx := context.Background()
		ok, err := a.client.Login(ctx, code)
		if err != nil {
			return err
		}
		if !ok {
			PrintError("Invalid access code")
			return nil
		}
		PrintSuccess("Logged in")

		// Push anything that was edited while logged out, then pull.
		if _, err := a.engine.SyncPending(ctx); err != nil {
			PrintWarning("Initial sync failed, local state kept")
			return nil
		}
		PrintSuccess("Configuration synced")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginCode, "code", "c", "", "Access code (prompted when omitted)")
}
