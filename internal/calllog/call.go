// Package calllog provides provider call recording and querying for
// traceability. Every external API call the pipeline makes is recorded
// with its prompt key, latency, and token usage.
package calllog

import "time"

// Kinds of provider calls the pipeline records.
const (
	KindTranscribe = "transcribe"
	KindOCR        = "ocr"
	KindAnalyze    = "analyze"
	KindEnrich     = "enrich"
)

// Call represents a recorded provider API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	RunID string `json:"run_id,omitempty"`
	URL   string `json:"url,omitempty"`

	// Prompt traceability
	PromptKey     string `json:"prompt_key,omitempty"`
	PromptVersion string `json:"prompt_version,omitempty"` // Hash linking to the exact prompt text used

	// Provider info
	Kind     string `json:"kind"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`

	// Token usage
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`

	// Response
	Response string `json:"response,omitempty"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
