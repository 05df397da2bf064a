package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"travel-scout/api"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			serverCfg := a.cfg.Server
			if address != "" {
				serverCfg.Address = address
			}

			a.logger.Info("Travel Scout API")
			a.logger.Info("Listings provider: %s | Flight site: %s | Headless: %v",
				a.cfg.Listings.BaseURL, a.cfg.Scraper.BaseURL, a.cfg.Scraper.Headless)

			server := api.NewServer(serverCfg, a.orchestrator, a.metrics, a.registry, a.logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&address, "addr", "", "listen address (overrides SERVER_ADDRESS)")
	return cmd
}
