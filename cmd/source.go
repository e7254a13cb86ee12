package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/reporter"
)

func newSourceCmd(g *globalOptions) *cobra.Command {
	var limitOutput bool

	cmd := &cobra.Command{
		Use:   "source",
		Short: "List the configured Chocolatey sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, settings, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			feeds, err := g.loadFeeds(cfg, settings)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), reporter.Sources(feeds, limitOutput))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&limitOutput, "limitoutput", "r", false, "limit the output to essential information")
	return cmd
}
