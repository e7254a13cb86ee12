package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/models"
)

// runChoco runs the choco executable attached to the given streams
var runChoco = func(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	c := exec.CommandContext(ctx, "choco", args...)
	c.Stdin = os.Stdin
	c.Stdout = stdout
	c.Stderr = stderr
	return c.Run()
}

// selectUpgrades asks the user which of the outdated packages to upgrade
var selectUpgrades = func(records []models.OutdatedRecord) ([]string, error) {
	final, err := tea.NewProgram(newUpgradeSelectModel(records)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(upgradeSelectModel)
	if !ok {
		return nil, nil
	}
	return m.SelectedIDs(), nil
}

type upgradeOptions struct {
	limitOutput bool
	prerelease  bool
	interactive bool
}

func newUpgradeCmd(g *globalOptions) *cobra.Command {
	o := &upgradeOptions{}

	cmd := &cobra.Command{
		Use:   "upgrade [pkg]",
		Short: "Upgrade outdated packages with choco",
		Long: `upgrade finds the outdated packages (pinned and unfound packages are
always skipped) and hands them to a single "choco upgrade" call.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, g, o, args)
		},
	}

	cmd.Flags().BoolVarP(&o.limitOutput, "limitoutput", "r", false, "limit the output to essential information")
	cmd.Flags().BoolVarP(&o.prerelease, "pre", "p", false, "include prerelease versions")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "choose the packages to upgrade")

	return cmd
}

// chocoUpgradeArgs builds the choco command line for the given ids
func chocoUpgradeArgs(ids []string, prerelease, limitOutput, verbose bool) []string {
	args := []string{"upgrade", "--ignore-http-cache", "-y"}
	if prerelease {
		args = append(args, "--pre")
	}
	if limitOutput {
		args = append(args, "-r")
	}
	if verbose {
		args = append(args, "-v")
	}
	return append(args, ids...)
}

func runUpgrade(cmd *cobra.Command, g *globalOptions, o *upgradeOptions, args []string) error {
	cfg, settings, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Filter = models.FilterAll
	if len(args) > 0 {
		cfg.Filter = args[0]
	}
	cfg.Prerelease = o.prerelease
	cfg.IgnorePinned = true
	cfg.IgnoreUnfound = true

	result, err := scan(cmd, g, cfg, settings)
	if err != nil {
		return err
	}

	if n := len(result.Failures); n > 0 {
		printWarning(cmd.ErrOrStderr(), "%d feed queries failed, some packages may be missing", n)
	}

	var outdated []models.OutdatedRecord
	for _, rec := range result.Records {
		if rec.Outdated {
			outdated = append(outdated, rec)
		}
	}

	out := cmd.OutOrStdout()
	if len(outdated) == 0 {
		fmt.Fprintln(out, "No outdated packages found.")
		return nil
	}

	var ids []string
	if o.interactive {
		ids, err = selectUpgrades(outdated)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			printDetail(out, "No packages selected")
			return nil
		}
	} else {
		for _, rec := range outdated {
			ids = append(ids, rec.ID)
		}
	}

	chocoArgs := chocoUpgradeArgs(ids, o.prerelease, o.limitOutput, g.verbose)
	loggerFromContext(cmd.Context()).Debug("running choco", "args", strings.Join(chocoArgs, " "))

	if err := runChoco(cmd.Context(), out, cmd.ErrOrStderr(), chocoArgs...); err != nil {
		printError(cmd.ErrOrStderr(), "Failed to upgrade packages: %s", strings.Join(ids, ", "))
		return fmt.Errorf("choco upgrade: %w", err)
	}
	printSuccess(out, "Successfully upgraded packages: %s", strings.Join(ids, ", "))
	return nil
}
