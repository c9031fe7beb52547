package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/server"
	"github.com/lumen-press/lumen/internal/site"
)

func newServeCmd() *cobra.Command {
	var flags ServerFlags

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Build the site and serve it with live reload",
		Long: `Build the site, serve the output directory and rebuild whenever the config
file or a static file changes. Open pages reload after every rebuild and show
an overlay listing the pages that failed.

Examples:
  lumen serve                   # Serve on server.host:server.port
  lumen serve --port 3000       # Serve on port 3000
  lumen serve --no-live-reload  # Build once and serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := flags.Apply(cmd.Flags(), &cfg.Server); err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			client, err := newSanityClient(cfg, logger)
			if err != nil {
				return err
			}

			gen := site.NewGenerator(cfg, client, site.WithLogger(logger))
			srv := server.New(cfg, gen,
				server.WithLogger(logger),
				server.WithConfigPath(configPath()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}

	cmd.Flags().AddFlagSet(flags.FlagSet())
	return cmd
}
