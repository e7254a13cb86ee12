package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rocolatey/rocolatey/internal/inventory"
	"github.com/rocolatey/rocolatey/internal/server"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local inventory and outdated report over HTTP",
		Long: `serve exposes plain text endpoints:

  /rocolatey/local[/r]      installed packages (?pkg= filter)
  /rocolatey/bad[/r]        packages in lib-bad
  /rocolatey/sources[/r]    configured sources
  /rocolatey/outdated[/r]   outdated report (?pkg=, ?pre=true)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, settings, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			feeds, err := g.loadFeeds(cfg, settings)
			if err != nil {
				return err
			}

			addr := listen
			if !cmd.Flags().Changed("listen") && settings != nil && settings.Listen != "" {
				addr = settings.Listen
			}

			srv := server.New(inventory.NewProvider(cfg.ChocolateyDir, logger), cfg, feeds, logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", server.DefaultListen, "address to listen on")
	return cmd
}
