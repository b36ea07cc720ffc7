package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/api"
	"github.com/jackzampolin/wandr/internal/config"
	"github.com/jackzampolin/wandr/internal/home"
	"github.com/jackzampolin/wandr/internal/svcctx"
	"github.com/jackzampolin/wandr/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wandr",
	Short: "Place extraction pipeline for short-form video",
	Long: `Wandr turns short-form video posts into structured place records.

The pipeline:
  - Fetches post media and metadata (yt-dlp + ffmpeg)
  - Transcribes audio and reads text from sampled frames
  - Extracts place candidates with an LLM and enriches them through
    Google Places lookups
  - Publishes enriched places to a Notion collection`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.wandr/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "wandr home directory (default: ~/.wandr)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Pick up a local .env for the API keys config references, and set
	// the output format before any command runs.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// loadConfig builds the config manager, preferring --config, then the
// home config file when it exists.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// buildServices wires the full pipeline stack for a command run.
func buildServices() (*svcctx.Services, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return nil, err
	}

	cfg := mgr.Get()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	services := svcctx.Build(cfg, h, logger)
	services.ConfigManager = mgr
	return services, nil
}
