package calllog

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder handles fire-and-forget call recording to a JSONL file.
type Recorder struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
}

// NewRecorder creates a recorder appending to the given file.
func NewRecorder(path string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{path: path, log: logger}
}

// Record captures a provider call. Writes are best-effort: a failed
// write logs a warning and the record is dropped. Safe to call on a
// nil recorder.
func (r *Recorder) Record(ctx context.Context, call Call) {
	if r == nil {
		return
	}

	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now().UTC()
	}
	if call.RunID == "" {
		call.RunID = RunIDFrom(ctx)
	}

	line, err := json.Marshal(call)
	if err != nil {
		r.log.Warn("failed to serialize call record", "kind", call.Kind, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.log.Warn("failed to open call log", "path", r.path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		r.log.Warn("failed to append call record", "path", r.path, "error", err)
	}
}

type runIDKey struct{}

// WithRunID returns a context carrying the pipeline run ID so provider
// calls made during the run can reference it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom extracts the run ID from the context, or "" when absent.
func RunIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}
