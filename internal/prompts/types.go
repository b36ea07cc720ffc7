// Package prompts provides prompt management with embedded defaults and
// file-based overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. A
// file named <key>.txt in the override directory replaces the embedded
// text for that key, so prompt tuning does not require a rebuild. Each
// prompt carries a SHA256 hash linking call records to the exact prompt
// version used.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: stages.extract_places.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if read from the override directory
	Version    string   `json:"version"`     // SHA256 of the resolved text
}
