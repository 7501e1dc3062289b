package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/xingkaijun/modernnav/nav"
)

var setBackgroundCmd = &cobra.Command{
	Use:   "set-background <value>",
	Short: "Set the page background (color, gradient or image URL)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.engine.Close()

		value := nav.NormalizeBackground(args[0])
		if err := a.engine.Save(context.Background(), nav.FieldBackground, value, true); err != nil {
			PrintWarning("Saved locally, push failed; run sync to retry")
			return nil
		}
		PrintSuccess("Background updated")
		return nil
	},
}
