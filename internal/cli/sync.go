package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending edits and pull the server's configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		pending := len(a.engine.Dirty().Dirty())
		snap, err := a.engine.SyncPending(context.Background())
		if err != nil {
			return err
		}

		if pending > 0 {
			PrintSuccess(fmt.Sprintf("Pushed %d pending field(s)", pending))
		}
		PrintSuccess(fmt.Sprintf("Synced %d categories", len(snap.Categories)))
		return nil
	},
}
