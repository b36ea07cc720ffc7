package pipeline

import (
	"fmt"
	"time"
)

// Status classifies the outcome of a single pipeline stage.
type Status string

const (
	// StatusSuccess means the stage completed cleanly.
	StatusSuccess Status = "success"

	// StatusFailed means the stage could not produce a usable result.
	StatusFailed Status = "failed"

	// StatusPartial means the stage produced a usable result but one
	// of its sub-capabilities failed along the way. The warnings list
	// records what was lost.
	StatusPartial Status = "partial"
)

// StageResult is the outcome contract shared by every stage. Stage
// payloads embed it; success and failure are derived from Status
// rather than stored alongside it.
type StageResult struct {
	Status   Status         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Success reports whether the stage completed cleanly.
func (r StageResult) Success() bool { return r.Status == StatusSuccess }

// Failed reports whether the stage failed outright. Partial results
// are not failures; the pipeline continues past them.
func (r StageResult) Failed() bool { return r.Status == StatusFailed }

// succeeded returns a clean success result.
func succeeded() StageResult {
	return StageResult{Status: StatusSuccess}
}

// stageFailed returns a failed result carrying the error message.
func stageFailed(err error) StageResult {
	return StageResult{Status: StatusFailed, Error: err.Error()}
}

// withWarnings downgrades a success to partial when warnings exist.
func withWarnings(warnings []string) StageResult {
	if len(warnings) == 0 {
		return succeeded()
	}
	return StageResult{Status: StatusPartial, Warnings: warnings}
}

// ContentKind identifies what kind of content a fetch produced.
type ContentKind string

const (
	KindVideo        ContentKind = "video"
	KindCarousel     ContentKind = "carousel"
	KindMetadataOnly ContentKind = "metadata-only"
)

// SourceText is one text fragment labeled by the frame or image it
// was read from.
type SourceText struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ContentResult is the content stage payload: the combined text plus
// the raw per-source artifacts kept for downstream debugging.
type ContentResult struct {
	StageResult

	URL          string       `json:"url"`
	Kind         ContentKind  `json:"kind,omitempty"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Transcript   string       `json:"transcript,omitempty"`
	FrameTexts   []SourceText `json:"frame_texts,omitempty"`
	CombinedText string       `json:"combined_text,omitempty"`
}

// ExtractResult is the place extraction stage payload.
type ExtractResult struct {
	StageResult

	Bundle *Bundle `json:"bundle,omitempty"`
}

// PublishResult is the publish stage payload. PageIDs lists the
// record identifiers touched by the run, pre-existing duplicates
// included; NewEntries counts only genuinely new records.
type PublishResult struct {
	StageResult

	Attempted  int      `json:"attempted"`
	Duplicates int      `json:"duplicates"`
	NewEntries int      `json:"new_entries"`
	PageIDs    []string `json:"page_ids,omitempty"`
}

// State tracks orchestrator progress through one run.
type State string

const (
	StateInit             State = "init"
	StateContentProcessed State = "content_processed"
	StatePlacesExtracted  State = "places_extracted"
	StatePublished        State = "published"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// RunResult aggregates the per-stage outcomes of one pipeline run,
// keyed in JSON by stage name. Stages that never ran are absent.
type RunResult struct {
	RunID      string         `json:"run_id"`
	URL        string         `json:"url"`
	Mode       Mode           `json:"mode"`
	State      State          `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Content    *ContentResult `json:"content,omitempty"`
	Location   *ExtractResult `json:"location,omitempty"`
	Publish    *PublishResult `json:"publish,omitempty"`
}

// Succeeded reports whether the content and location stages both
// completed cleanly. Publish outcome is deliberately excluded; a
// publish failure is soft and does not fail the run.
func (r *RunResult) Succeeded() bool {
	return r.Content != nil && r.Content.Success() &&
		r.Location != nil && r.Location.Success()
}

// Delivered reports the stricter end-to-end bar used by batch
// accounting: all three stages ran and completed cleanly.
func (r *RunResult) Delivered() bool {
	return r.Succeeded() && r.Publish != nil && r.Publish.Success()
}

// FailureReason describes the first stage that kept the run from
// being delivered, or "" when the run was delivered.
func (r *RunResult) FailureReason() string {
	switch {
	case r.Content == nil:
		return "content stage did not run"
	case r.Content.Failed():
		return fmt.Sprintf("content: %s", r.Content.Error)
	case !r.Content.Success():
		return fmt.Sprintf("content incomplete: %s", firstOr(r.Content.Warnings, "partial result"))
	case r.Location == nil:
		return "location stage did not run"
	case !r.Location.Success():
		return fmt.Sprintf("location: %s", r.Location.Error)
	case r.Publish == nil:
		return "publish stage did not run"
	case !r.Publish.Success():
		if r.Publish.Error != "" {
			return fmt.Sprintf("publish: %s", r.Publish.Error)
		}
		return fmt.Sprintf("publish incomplete: %s", firstOr(r.Publish.Warnings, "partial result"))
	}
	return ""
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 {
		return list[0]
	}
	return fallback
}
