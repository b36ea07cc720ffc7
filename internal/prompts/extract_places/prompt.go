// Package extract_places holds the prompts and output schema for
// turning combined video text into place candidates.
package extract_places

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/jackzampolin/wandr/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// Prompt keys
const (
	SystemPromptKey = "stages.extract_places.system"
	UserPromptKey   = "stages.extract_places.user"
)

// UserPromptData is the data rendered into the user prompt template.
type UserPromptData struct {
	ContentText string
	Categories  string // comma-joined category hints, may be empty
}

// SystemPrompt returns the system prompt for place extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for place extraction.
func UserPrompt(contentText string, categories []string) string {
	data := UserPromptData{
		ContentText: contentText,
		Categories:  strings.Join(categories, ", "),
	}
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}

// RenderUserPrompt renders arbitrary template text with the user prompt
// data. Override text that fails to parse or execute falls back to the
// embedded default.
func RenderUserPrompt(text string, data UserPromptData) string {
	tmpl, err := template.New("user").Parse(text)
	if err != nil {
		return UserPrompt(data.ContentText, splitCategories(data.Categories))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return UserPrompt(data.ContentText, splitCategories(data.Categories))
	}
	return buf.String()
}

func splitCategories(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ", ")
	return parts
}

// RegisterPrompts registers the place extraction prompts with the
// resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Place extraction system prompt - pulls specific businesses out of combined video text",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Place extraction user prompt template",
	})
}
