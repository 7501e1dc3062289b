package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the server's access code",
	Long: `Change the server's access code.

Changing the code signs you out everywhere else: every token issued under
the old code stops working. This session receives a fresh token pair.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		current, err := promptLine("Current access code: ")
		if err != nil {
			return err
		}
		newCode, err := promptLine("New access code: ")
		if err != nil {
			return err
		}

		if err := a.client.UpdateAccessCode(context.Background(), current, newCode); err != nil {
			return err
		}
		PrintSuccess("Access code updated")
		return nil
	},
}
