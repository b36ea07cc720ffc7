package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/api"
	"github.com/jackzampolin/wandr/internal/pipeline"
)

var (
	batchQueue      string
	batchCollection string
	batchWorkers    int
	batchAll        bool
	batchDryRun     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Drain the pending queue through the pipeline",
	Long: `Process every pending item in the source queue.

Items are read from the Notion source database where Status is
"Pending", processed through the pipeline (mode resolved per item from
its Mode tag), published to the places collection, and marked
Completed or Failed.

By default only items created today (UTC) are picked up; --all drops
the date window.

Examples:
  wandr batch                  # Today's pending items, config defaults
  wandr batch --all            # Every pending item regardless of date
  wandr batch --dry-run        # List matching items without processing
  wandr batch --workers 4      # Overlap runs with a worker pool`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, err := buildServices()
		if err != nil {
			return err
		}
		cfg := services.ConfigManager.Get()

		queue := batchQueue
		if queue == "" {
			queue = cfg.Notion.SourceDBID
		}
		collection := batchCollection
		if collection == "" {
			collection = cfg.Notion.PlacesDBID
		}

		if services.Notion == nil || queue == "" {
			return errors.New("queue not configured: set notion.api_key and notion.source_db_id")
		}
		if collection == "" {
			return errors.New("destination collection not configured: set notion.places_db_id")
		}

		// Fail fast when the destination schema is off.
		if err := services.Notion.CheckCollection(ctx, collection); err != nil {
			return err
		}

		var filter pipeline.PendingFilter
		if !batchAll {
			since := time.Now().UTC().Truncate(24 * time.Hour)
			filter.Since = &since
		}

		if batchDryRun {
			items, err := services.Notion.ListPending(ctx, queue, filter)
			if err != nil {
				return err
			}
			return api.Output(items)
		}

		runner := services.Batch
		if batchWorkers > 0 {
			runner = pipeline.NewBatchRunner(services.Orchestrator, services.Notion, batchWorkers, services.Logger)
		}

		outputDir := cfg.OutputDir
		if outputDir == "" {
			outputDir = services.Home.ResultsPath()
		}
		summary, err := runner.Run(ctx, pipeline.BatchRequest{
			QueueID:      queue,
			CollectionID: collection,
			Categories:   cfg.Categories,
			OutputDir:    outputDir,
			Filter:       filter,
		})
		if err != nil {
			return err
		}

		if err := api.Output(summary); err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d items failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchQueue, "queue", "", "Source queue database ID (default from config)")
	batchCmd.Flags().StringVar(&batchCollection, "collection", "", "Destination collection ID (default from config)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent item runs (default from config)")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "Process all pending items, not just today's")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "List matching items without processing them")

	rootCmd.AddCommand(batchCmd)
}
