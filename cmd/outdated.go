package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/config"
	"github.com/rocolatey/rocolatey/internal/inventory"
	"github.com/rocolatey/rocolatey/internal/models"
	"github.com/rocolatey/rocolatey/internal/reporter"
	"github.com/rocolatey/rocolatey/internal/scanner"
)

type outdatedOptions struct {
	limitOutput   bool
	listOutput    bool
	prerelease    bool
	ignorePinned  bool
	ignoreUnfound bool
	chocoCompat   bool
	format        string
	output        string
}

func newOutdatedCmd(g *globalOptions) *cobra.Command {
	o := &outdatedOptions{}

	cmd := &cobra.Command{
		Use:   "outdated [pkg]",
		Short: "List installed packages that have newer versions available",
		Long: `outdated compares the installed packages with every enabled source and
prints the ones that can be upgraded.

Pinned packages and packages missing from every source are skipped unless
--choco-compat is given, which reports them the way "choco outdated" does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutdated(cmd, g, o, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&o.limitOutput, "limitoutput", "r", false, "limit the output to essential information")
	flags.BoolVarP(&o.listOutput, "listoutput", "l", false, "print outdated ids on a single line")
	flags.BoolVarP(&o.prerelease, "pre", "p", false, "include prerelease versions")
	flags.BoolVar(&o.ignorePinned, "ignore-pinned", false, "ignore any pinned packages")
	flags.BoolVar(&o.ignoreUnfound, "ignore-unfound", false, "ignore any unfound packages")
	flags.BoolVar(&o.chocoCompat, "choco-compat", false, "report pinned and unfound packages like choco does")
	flags.StringVarP(&o.format, "format", "f", "text", "output format: "+strings.Join(reporter.Formats, ", "))
	flags.StringVarP(&o.output, "output", "o", "", "output file path (default: stdout)")

	return cmd
}

// apply copies the command flags onto cfg
func (o *outdatedOptions) apply(cfg *models.Config, args []string) error {
	if !slices.Contains(reporter.Formats, o.format) {
		return fmt.Errorf("unknown format %q (want one of %s)", o.format, strings.Join(reporter.Formats, ", "))
	}

	cfg.Filter = models.FilterAll
	if len(args) > 0 {
		cfg.Filter = args[0]
	}
	cfg.Prerelease = o.prerelease
	cfg.IgnorePinned = !o.chocoCompat || o.ignorePinned
	cfg.IgnoreUnfound = !o.chocoCompat || o.ignoreUnfound
	cfg.LimitOutput = o.limitOutput
	cfg.ListOutput = o.listOutput
	cfg.OutputFormat = o.format
	return nil
}

func runOutdated(cmd *cobra.Command, g *globalOptions, o *outdatedOptions, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, settings, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := o.apply(cfg, args); err != nil {
		return err
	}

	result, err := scan(cmd, g, cfg, settings)
	if err != nil {
		return err
	}
	logger.Debug("scan complete", "outdated", result.Outdated(), "warnings", result.Warnings())

	out, err := reporter.Get(cfg).Report(result.Records)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	if err := writeOutput(cmd, o.output, out); err != nil {
		return err
	}

	// the report is still printed when a feed gave up, but the run fails
	if err := result.CommunicationError(); err != nil {
		return err
	}
	return nil
}

// scan lists the local packages and checks them against the configured feeds
func scan(cmd *cobra.Command, g *globalOptions, cfg *models.Config, settings *config.Settings) (*scanner.Result, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	local, err := inventory.NewProvider(cfg.ChocolateyDir, logger).ListLocal()
	if err != nil {
		return nil, fmt.Errorf("failed to list local packages: %w", err)
	}
	// fail on an unknown package before reading feeds or touching the network
	if _, err := scanner.SelectPackages(local, cfg.Filter); err != nil {
		return nil, err
	}

	feeds, err := g.loadFeeds(cfg, settings)
	if err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	result, err := scanner.New(cfg, feeds, logger).Scan(ctx, local)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Checked %d packages against %d feeds", len(local), len(models.Enabled(feeds))))
	return result, nil
}
