package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Print the live group membership of the deployment as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Inventory(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
