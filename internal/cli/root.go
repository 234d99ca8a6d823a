// Package cli holds the medrec command tree.
package cli

import "github.com/spf13/cobra"

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "medrec",
		Short:        "Doctor and patient records service",
		SilenceUsage: true,
	}
	root.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
	)
	root.AddCommand(newServeCmd(), newMigrateCmd(), newHashPasswordCmd())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
