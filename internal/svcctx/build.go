package svcctx

import (
	"log/slog"
	"time"

	"github.com/jackzampolin/wandr/internal/analyze"
	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/config"
	"github.com/jackzampolin/wandr/internal/fetch"
	"github.com/jackzampolin/wandr/internal/home"
	"github.com/jackzampolin/wandr/internal/notion"
	"github.com/jackzampolin/wandr/internal/pipeline"
	"github.com/jackzampolin/wandr/internal/places"
	"github.com/jackzampolin/wandr/internal/prompts"
	"github.com/jackzampolin/wandr/internal/transcribe"
	"github.com/jackzampolin/wandr/internal/vision"
)

// Build wires every configured adapter into the pipeline and returns
// the assembled services. Adapters whose credentials are absent stay
// nil; the content and extract stages report the gap per mode instead
// of failing here, so a metadata-only setup needs no provider keys at
// all.
func Build(cfg *config.Config, h *home.Dir, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}

	recorder := calllog.NewRecorder(h.CallLogPath(), logger)
	resolver := prompts.NewResolver(h.PromptsPath(), logger)

	downloader := fetch.NewDownloader(fetch.Config{
		YtdlpPath:   cfg.Fetch.YtdlpPath,
		FfmpegPath:  cfg.Fetch.FfmpegPath,
		FfprobePath: cfg.Fetch.FfprobePath,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
	}, logger)

	var transcriber pipeline.Transcriber
	var analyzer pipeline.Analyzer
	if key := config.ResolveEnvVars(cfg.OpenAI.APIKey); key != "" {
		transcriber = transcribe.NewClient(transcribe.Config{
			APIKey: key,
			Model:  cfg.OpenAI.TranscribeModel,
		}, recorder, logger)
		analyzer = analyze.NewClient(analyze.Config{
			APIKey: key,
			Model:  cfg.OpenAI.AnalyzeModel,
		}, resolver, recorder, logger)
	}

	var reader pipeline.TextReader
	if key := config.ResolveEnvVars(cfg.Vision.APIKey); key != "" {
		reader = vision.NewClient(vision.Config{APIKey: key}, recorder, logger)
	}

	var enricher pipeline.Enricher
	if key := config.ResolveEnvVars(cfg.Places.APIKey); key != "" {
		enricher = places.NewClient(places.Config{APIKey: key}, recorder, logger)
	}

	var notionClient *notion.Client
	var store pipeline.RecordStore
	var queue pipeline.WorkQueue
	if key := config.ResolveEnvVars(cfg.Notion.APIKey); key != "" {
		notionClient = notion.NewClient(notion.Config{APIKey: key}, logger)
		store = notionClient
		queue = notionClient
	}

	content := pipeline.NewContentCommand(downloader, transcriber, reader, logger)
	extract := pipeline.NewExtractCommand(analyzer, enricher, logger)
	publish := pipeline.NewPublishCommand(store, logger)

	orchestrator := pipeline.NewOrchestrator(content, extract, publish, h.ScratchPath(), logger)
	batch := pipeline.NewBatchRunner(orchestrator, queue, cfg.Batch.Workers, logger)

	return &Services{
		Logger:       logger,
		Home:         h,
		Orchestrator: orchestrator,
		Batch:        batch,
		Notion:       notionClient,
		Recorder:     recorder,
		Prompts:      resolver,
	}
}
