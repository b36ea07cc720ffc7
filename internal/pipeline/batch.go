package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Runner runs one pipeline pass for a URL. *Orchestrator implements
// it; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, opts Options) (*RunResult, error)
}

// BatchRequest configures one pass over the pending work queue.
type BatchRequest struct {
	// QueueID names the source queue to drain.
	QueueID string

	// CollectionID is the destination collection every item
	// publishes to.
	CollectionID string

	// Categories hints the analyzer, shared by all items.
	Categories []string

	// OutputDir receives per-run result documents when set.
	OutputDir string

	// Filter narrows which pending items are picked up.
	Filter PendingFilter
}

// BatchSummary aggregates one batch pass. Items never attempted, such
// as an empty queue, stay out of every count.
type BatchSummary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors"`
}

// BatchRunner drains pending work items through the pipeline. Items
// run in queue order; a worker pool larger than one overlaps runs
// while keeping per-item isolation and per-item status write-back.
type BatchRunner struct {
	runner  Runner
	queue   WorkQueue
	workers int
	log     *slog.Logger
}

// NewBatchRunner wires the batch runner. workers below one is treated
// as one, which keeps runs strictly sequential.
func NewBatchRunner(runner Runner, queue WorkQueue, workers int, log *slog.Logger) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &BatchRunner{runner: runner, queue: queue, workers: workers, log: log}
}

// itemOutcome is one item's batch classification.
type itemOutcome struct {
	ok  bool
	err string
}

// Run pulls all pending items and processes each through the
// pipeline. An item counts as successful only when its content,
// location, and publish stages all succeeded; anything less marks it
// failed even though the pipeline itself completed. No item's panic
// or error can abort the batch, and every attempted item gets its
// terminal status written back.
func (b *BatchRunner) Run(ctx context.Context, req BatchRequest) (*BatchSummary, error) {
	items, err := b.queue.ListPending(ctx, req.QueueID, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}

	summary := &BatchSummary{Total: len(items), Errors: []string{}}
	if len(items) == 0 {
		b.log.Info("work queue empty, nothing to process")
		return summary, nil
	}

	b.log.Info("batch starting", "items", len(items), "workers", b.workers)

	// Outcomes land in queue order regardless of worker overlap, so
	// the summary's error list is deterministic.
	outcomes := make([]itemOutcome, len(items))
	sem := make(chan struct{}, b.workers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item WorkItem) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = b.processItem(ctx, item, req)
		}(i, item)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.ok {
			summary.Successful++
			continue
		}
		summary.Failed++
		if outcome.err != "" {
			summary.Errors = append(summary.Errors, outcome.err)
		}
	}

	b.log.Info("batch finished", "total", summary.Total, "successful", summary.Successful, "failed", summary.Failed)
	return summary, nil
}

// processItem runs one work item end to end. The deferred recover is
// the batch's isolation boundary: an unexpected panic inside a run
// becomes a failed item with its status written back, and the loop
// moves on.
func (b *BatchRunner) processItem(ctx context.Context, item WorkItem, req BatchRequest) (out itemOutcome) {
	log := b.log.With("item_id", item.ID, "url", item.URL)

	defer func() {
		if r := recover(); r != nil {
			log.Error("unexpected panic processing item", "panic", r)
			b.writeStatus(ctx, log, item, ItemFailed)
			out = itemOutcome{err: fmt.Sprintf("item %s: unexpected: %v", item.ID, r)}
		}
	}()

	opts, err := NewOptions(Options{
		URL:          item.URL,
		Mode:         ResolveMode(item.ModeTag),
		Categories:   req.Categories,
		OutputDir:    req.OutputDir,
		Publish:      true,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		b.writeStatus(ctx, log, item, ItemFailed)
		return itemOutcome{err: fmt.Sprintf("item %s: %v", item.ID, err)}
	}

	log.Info("processing work item", "mode", opts.Mode)
	res, err := b.runner.Run(ctx, opts)
	if err != nil {
		b.writeStatus(ctx, log, item, ItemFailed)
		return itemOutcome{err: fmt.Sprintf("item %s: %v", item.ID, err)}
	}

	if res.Delivered() {
		b.writeStatus(ctx, log, item, ItemCompleted)
		return itemOutcome{ok: true}
	}

	b.writeStatus(ctx, log, item, ItemFailed)
	return itemOutcome{err: fmt.Sprintf("item %s: %s", item.ID, res.FailureReason())}
}

// writeStatus records the item's terminal status. A write-back
// failure is logged and does not change the item's classification.
func (b *BatchRunner) writeStatus(ctx context.Context, log *slog.Logger, item WorkItem, status ItemStatus) {
	if err := b.queue.UpdateStatus(ctx, item.ID, status); err != nil {
		log.Warn("status write-back failed", "status", status, "error", err)
	}
}
