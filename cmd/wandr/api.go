package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running wandr server via HTTP.

These commands require a running server (wandr serve).
Use --server to specify a custom server URL.

Examples:
  wandr api health                  # Check server health
  wandr api process <url>           # Process a post through the server
  wandr api status                  # Show service capabilities`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ProcessEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	rootCmd.AddCommand(apiCmd)
}
