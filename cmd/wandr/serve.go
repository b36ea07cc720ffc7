package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/server"
	"github.com/jackzampolin/wandr/internal/server/endpoints"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wandr server",
	Long: `Start the wandr HTTP server.

The server exposes the webhook processing route plus health and
documentation endpoints:
  - POST /api/webhook/process - Run the pipeline for a post URL
  - GET  /health              - Basic server health check
  - GET  /ready               - Readiness check (includes the record store)
  - GET  /swagger             - API documentation

Examples:
  wandr serve                    # Start on the configured port (8080)
  wandr serve --port 3000        # Start on a custom port
  wandr serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, err := buildServices()
		if err != nil {
			return err
		}
		cfg := services.ConfigManager.Get()

		// Hot-reload config while serving; handlers read the manager
		// per request.
		services.ConfigManager.WatchConfig()

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			Services:        services,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          services.Logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
