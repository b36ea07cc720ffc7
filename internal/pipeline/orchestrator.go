// Package pipeline sequences the stages that turn a short-form video
// URL into place records: content processing, place extraction, and
// publishing. The orchestrator runs the stages in fixed order for one
// URL; the batch runner drives many queued URLs through the
// orchestrator with per-item failure isolation.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ContentStage produces combined text for a URL.
type ContentStage interface {
	Run(ctx context.Context, opts Options) *ContentResult
}

// ExtractStage turns content stage output into an enriched bundle.
type ExtractStage interface {
	Run(ctx context.Context, content *ContentResult, opts Options) *ExtractResult
}

// PublishStage writes a bundle to the destination collection.
type PublishStage interface {
	Run(ctx context.Context, bundle *Bundle, opts Options) *PublishResult
}

// Orchestrator runs the three pipeline stages in order for one URL.
// A content or location failure aborts the run; a publish failure is
// soft and leaves the run done. Scratch artifacts are released on
// every exit path.
type Orchestrator struct {
	content ContentStage
	extract ExtractStage
	publish PublishStage
	scratch string
	log     *slog.Logger
}

// NewOrchestrator wires the orchestrator. scratch is the root under
// which each run gets its own artifact directory.
func NewOrchestrator(content ContentStage, extract ExtractStage, publish PublishStage, scratch string, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		content: content,
		extract: extract,
		publish: publish,
		scratch: scratch,
		log:     log,
	}
}

// Run processes one URL through the pipeline. The returned error is
// non-nil only for pre-flight configuration problems; stage outcomes
// land in the result, keyed by stage name.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunResult, error) {
	opts, err := NewOptions(opts)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := o.log.With("run_id", runID, "url", opts.URL, "mode", opts.Mode)

	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(o.scratch, runID)
	}
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %v", ErrConfiguration, err)
	}

	res := &RunResult{
		RunID:     runID,
		URL:       opts.URL,
		Mode:      opts.Mode,
		State:     StateInit,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		res.FinishedAt = time.Now().UTC()
		o.cleanup(log, opts)
		o.writeResult(log, opts, res)
	}()

	log.Info("pipeline run starting")

	res.Content = o.content.Run(ctx, opts)
	if res.Content.Failed() {
		res.State = StateAborted
		log.Error("content stage failed, aborting run", "error", res.Content.Error)
		return res, nil
	}
	res.State = StateContentProcessed
	log.Debug("content stage complete", "status", res.Content.Status)

	res.Location = o.extract.Run(ctx, res.Content, opts)
	if res.Location.Failed() {
		res.State = StateAborted
		log.Error("location stage failed, aborting run", "error", res.Location.Error)
		return res, nil
	}
	res.State = StatePlacesExtracted
	log.Debug("location stage complete", "places", len(res.Location.Bundle.Places))

	if opts.Publish {
		res.Publish = o.publish.Run(ctx, res.Location.Bundle, opts)
		if res.Publish.Failed() {
			// Soft failure: the content and location work stands
			// even when the store is down.
			log.Warn("publish stage failed", "error", res.Publish.Error)
		} else {
			res.State = StatePublished
		}
	}

	res.State = StateDone
	log.Info("pipeline run finished", "succeeded", res.Succeeded(), "delivered", res.Delivered())
	return res, nil
}

// cleanup releases the run's scratch directory. Failures are logged,
// never propagated; cleanup cannot fail the pipeline.
func (o *Orchestrator) cleanup(log *slog.Logger, opts Options) {
	if opts.WorkDir == "" {
		return
	}
	if opts.KeepArtifacts {
		log.Debug("keeping scratch artifacts", "dir", opts.WorkDir)
		return
	}
	if err := os.RemoveAll(opts.WorkDir); err != nil {
		log.Warn("scratch cleanup failed", "dir", opts.WorkDir, "error", err)
	}
}

// writeResult drops the run result document into the output
// directory. Best effort: write failures are logged, not returned.
func (o *Orchestrator) writeResult(log *slog.Logger, opts Options, res *RunResult) {
	if opts.OutputDir == "" {
		return
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		log.Warn("create output dir failed", "dir", opts.OutputDir, "error", err)
		return
	}
	path := filepath.Join(opts.OutputDir, res.RunID+"_result.json")
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Warn("encode run result failed", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("write run result failed", "path", path, "error", err)
		return
	}
	log.Debug("run result written", "path", path)
}
