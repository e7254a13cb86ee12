package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/inventory"
	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/reporter"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var (
		limitOutput bool
		depTree     bool
	)

	cmd := &cobra.Command{
		Use:   "list [filter]",
		Short: "List locally installed packages",
		Long: `list prints the installed packages. The optional filter keeps packages
whose id contains it; "all" lists everything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}

			filter := models.FilterAll
			if len(args) > 0 {
				filter = args[0]
			}

			pkgs, err := inventory.NewProvider(cfg.ChocolateyDir, loggerFromContext(cmd.Context())).ListLocal()
			if err != nil {
				return fmt.Errorf("failed to list local packages: %w", err)
			}

			if depTree {
				fmt.Fprint(cmd.OutOrStdout(), reporter.DependencyTree(pkgs, filter))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), reporter.PackageList(pkgs, filter, limitOutput))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&limitOutput, "limitoutput", "r", false, "limit the output to essential information")
	cmd.Flags().BoolVarP(&depTree, "deptree", "d", false, "print the dependency tree of each package")

	return cmd
}

func newBadCmd(g *globalOptions) *cobra.Command {
	var limitOutput bool

	cmd := &cobra.Command{
		Use:   "bad",
		Short: "List packages in lib-bad",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}

			pkgs, err := inventory.NewProvider(cfg.ChocolateyDir, loggerFromContext(cmd.Context())).ListBad()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), reporter.BadList(pkgs, limitOutput))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&limitOutput, "limitoutput", "r", false, "limit the output to essential information")
	return cmd
}
