package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/config"
	"github.com/rocolatey/rocolatey/internal/models"
)

var version = "0.9.0"

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbose       bool
	sslValidation bool
	noCache       bool
	timeout       int
	chocoDir      string
	configFile    string

	// decrypt is swapped out in tests
	decrypt config.DecryptFunc
}

// Execute runs the rocolatey CLI with the given context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{decrypt: config.Decrypt}

	root := &cobra.Command{
		Use:   "rocolatey",
		Short: "Fast outdated checks for Chocolatey packages",
		Long: `rocolatey checks the packages installed by Chocolatey against every
configured source and reports which of them can be upgraded.

Sources are read from chocolatey.config (NuGet v2, NuGet v3 and local
folder feeds). Packages are queried in bulk and in parallel, so a full
check is much faster than "choco outdated".

Examples:
  # choco-compatible outdated report
  rocolatey outdated

  # Pipe-delimited output for scripts
  rocolatey outdated -r

  # Ids only, ready for "choco upgrade"
  rocolatey outdated -l

  # Upgrade everything that is outdated
  rocolatey upgrade

  # Show the dependency tree of installed packages
  rocolatey list --deptree`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if opts.verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVarP(&opts.sslValidation, "ssl-validation-enabled", "s", false, "require valid TLS certificates from feeds")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the service index cache")
	flags.IntVar(&opts.timeout, "timeout", 60, "HTTP request timeout in seconds")
	flags.StringVar(&opts.chocoDir, "choco-dir", "", "Chocolatey installation directory (default: $ChocolateyInstall)")
	flags.StringVar(&opts.configFile, "config", "", "settings file (default: rocolatey.toml, .yaml or .hcl)")

	root.AddCommand(newOutdatedCmd(opts))
	root.AddCommand(newUpgradeCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newBadCmd(opts))
	root.AddCommand(newSourceCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCacheCmd())

	return root
}

// loadConfig merges defaults, the settings file and explicit flags, in that
// order of precedence from lowest to highest
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*models.Config, *config.Settings, error) {
	logger := loggerFromContext(cmd.Context())

	path := o.configFile
	if path == "" {
		path = config.Find(config.SearchDirs()...)
	}

	var settings *config.Settings
	if path != "" {
		s, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("loaded settings", "path", path)
		settings = s
	}

	cfg := models.DefaultConfig()
	settings.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("ssl-validation-enabled") {
		cfg.RequireSSLValidation = o.sslValidation
	}
	if flags.Changed("no-cache") {
		cfg.NoCache = o.noCache
	}
	if flags.Changed("timeout") {
		cfg.Timeout = time.Duration(o.timeout) * time.Second
	}

	override := o.chocoDir
	if override == "" {
		override = cfg.ChocolateyDir
	}
	dir, err := config.ChocolateyDir(override)
	if err != nil {
		return nil, nil, err
	}
	cfg.ChocolateyDir = dir

	return cfg, settings, nil
}

// loadFeeds reads the feeds of the chocolatey installation and settings file
func (o *globalOptions) loadFeeds(cfg *models.Config, settings *config.Settings) ([]*models.Feed, error) {
	feeds, err := config.LoadFeeds(cfg.ChocolateyDir, settings, o.decrypt)
	if err != nil {
		return nil, fmt.Errorf("failed to load feeds: %w", err)
	}
	return feeds, nil
}

// writeOutput writes to path, or to the command's stdout when path is empty
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	printInfo(cmd.ErrOrStderr(), "Report written to %s", path)
	return nil
}
