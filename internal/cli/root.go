// Package cli implements the navsync command line client: login and session
// management plus offline-first editing and syncing of the start page
// configuration against a ModernNav server.
package cli

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "navsync",
	Version: "dev",
	Short:   "Sync client for a ModernNav start page server",
	Long: `navsync keeps a local copy of your start page configuration and syncs it
with a ModernNav server. Edits always land locally first; pushes happen
in the background and survive going offline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(setBackgroundCmd)
	rootCmd.AddCommand(passwdCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
