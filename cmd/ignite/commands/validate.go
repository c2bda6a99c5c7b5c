package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph]",
		Short: "Check a dependency graph file without contacting the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.app.Validate(path, cmd.OutOrStdout())
		},
	}
}
