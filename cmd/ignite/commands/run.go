package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/ignite/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [role]",
		Short: "Run the startup commands of a role, ending with its daemon",
		Long: "Run the startup commands of a role in dependency order. Commands wait until\n" +
			"the states they require are DONE in the coordination store. The role\n" +
			"defaults to IGNITE_ROLE.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.RunOptions{}
			if len(args) == 1 {
				opts.Role = args[0]
			}
			opts.Group, _ = cmd.Flags().GetString("group")
			opts.GraphPath, _ = cmd.Flags().GetString("graph")
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringP("group", "g", "", "Group to join when the role has a daemon (defaults to the role)")
	cmd.Flags().StringP("graph", "f", "", "Path to the dependency graph file")
	return cmd
}
