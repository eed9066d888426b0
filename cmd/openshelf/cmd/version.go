package cmd

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(app Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("openshelf %s (commit %s, built %s)\n",
				app.Version(), app.Commit(), app.Date())
		},
	}
}
