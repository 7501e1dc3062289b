package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the local configuration as a backup file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		raw, err := a.engine.Export()
		if err != nil {
			return err
		}

		if exportOut == "" || exportOut == "-" {
			fmt.Println(string(raw))
			return nil
		}
		if err := os.WriteFile(exportOut, raw, 0o600); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Backup written to %s", exportOut))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore configuration from a backup file",
	Long: `Restore configuration from a backup file.

Both the versioned backup envelope written by export and a bare category
array are accepted. The restored data is applied locally first and pushed
to the server when a session is available.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		if err := a.engine.Import(context.Background(), raw); err != nil {
			return err
		}

		if a.engine.Dirty().Any() {
			PrintSuccess("Backup applied locally; log in to push it")
		} else {
			PrintSuccess("Backup imported and synced")
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (stdout when omitted)")
}
