package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/api"
	"github.com/jackzampolin/wandr/internal/pipeline"
)

var (
	processTags          []string
	processCategories    []string
	processPublish       bool
	processCollection    string
	processFrameInterval float64
	processMaxFrames     int
	processKeepArtifacts bool
)

var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Run the pipeline for one post URL",
	Long: `Process one post URL through the pipeline.

Tags select the processing mode the way queue items do: metadata-only,
audio-only, or carousel. Without a recognized tag the full pipeline
runs (transcription plus frame text).

Examples:
  wandr process https://www.tiktok.com/@chef/video/123
  wandr process --tag metadata-only https://www.tiktok.com/t/ZTjkVxyz/
  wandr process --publish --collection <db-id> <url>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := buildServices()
		if err != nil {
			return err
		}
		cfg := services.ConfigManager.Get()

		categories := processCategories
		if len(categories) == 0 {
			categories = cfg.Categories
		}
		collection := processCollection
		if collection == "" {
			collection = cfg.Notion.PlacesDBID
		}
		frameInterval := processFrameInterval
		if frameInterval == 0 {
			frameInterval = cfg.Frames.IntervalSeconds
		}
		maxFrames := processMaxFrames
		if maxFrames == 0 {
			maxFrames = cfg.Frames.MaxFrames
		}
		outputDir := cfg.OutputDir
		if outputDir == "" {
			outputDir = services.Home.ResultsPath()
		}

		res, err := services.Orchestrator.Run(cmd.Context(), pipeline.Options{
			URL:           args[0],
			Mode:          pipeline.ResolveModeFromTags(processTags),
			Categories:    categories,
			OutputDir:     outputDir,
			Publish:       processPublish,
			CollectionID:  collection,
			FrameInterval: frameInterval,
			MaxFrames:     maxFrames,
			KeepArtifacts: processKeepArtifacts,
		})
		if err != nil {
			return err
		}

		if err := api.Output(res); err != nil {
			return err
		}
		if !res.Succeeded() {
			return fmt.Errorf("run did not complete: %s", res.FailureReason())
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringArrayVar(&processTags, "tag", nil, "Routing tag (repeatable): metadata-only, audio-only, carousel")
	processCmd.Flags().StringSliceVar(&processCategories, "categories", nil, "Category hints for the analyzer (default from config)")
	processCmd.Flags().BoolVar(&processPublish, "publish", false, "Publish extracted places to the collection")
	processCmd.Flags().StringVar(&processCollection, "collection", "", "Destination collection ID (default from config)")
	processCmd.Flags().Float64Var(&processFrameInterval, "frame-interval", 0, "Seconds between sampled frames (default from config)")
	processCmd.Flags().IntVar(&processMaxFrames, "max-frames", 0, "Maximum frames sampled per video (default from config)")
	processCmd.Flags().BoolVar(&processKeepArtifacts, "keep-artifacts", false, "Keep the run's scratch directory")

	rootCmd.AddCommand(processCmd)
}
