package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, pending edits and the local configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		PrintLabelValue("Server", a.config.GetServerURL())
		if a.client.IsAuthenticated(context.Background()) {
			PrintLabelValue("Session", "logged in")
		} else {
			PrintLabelValue("Session", "logged out")
		}

		dirty := a.engine.Dirty().Dirty()
		if len(dirty) == 0 {
			PrintLabelValue("Pending", "nothing to push")
		} else {
			names := make([]string, 0, len(dirty))
			for _, f := range dirty {
				names = append(names, string(f))
			}
			PrintLabelValue("Pending", strings.Join(names, ", "))
		}

		snap := a.engine.Local()
		links := 0
		for _, cat := range snap.Categories {
			for _, sub := range cat.SubCategories {
				links += len(sub.Items)
			}
		}
		PrintLabelValue("Categories", fmt.Sprintf("%d (%d links)", len(snap.Categories), links))
		PrintLabelValue("Background", snap.Background)
		PrintLabelValue("Theme", string(snap.Preferences.ThemeMode))
		return nil
	},
}
