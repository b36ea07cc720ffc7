package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots,
// underscores). Keys double as override file names, so anything else
// is rejected.
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

// variablePattern matches Go template variable references like
// {{.VarName}} or {{ .Var.Field }}.
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// Resolver resolves prompts with file-based overrides.
// Resolution order: <overrideDir>/<key>.txt > embedded default.
type Resolver struct {
	overrideDir string
	embedded    map[string]EmbeddedPrompt
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewResolver creates a prompt resolver. An empty overrideDir disables
// overrides.
func NewResolver(overrideDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		overrideDir: overrideDir,
		embedded:    make(map[string]EmbeddedPrompt),
		logger:      logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each stage that owns
// prompts.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Resolve returns the override text when an override file exists for
// the key, otherwise the embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	if !validKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("invalid prompt key: %s", key)
	}

	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, key+".txt")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text := string(data)
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				IsOverride: true,
				Version:    HashText(text),
			}, nil
		case !os.IsNotExist(err):
			r.logger.Warn("failed to read prompt override", "key", key, "error", err)
			// Fall through to embedded default
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Version:   embedded.Hash,
	}, nil
}

// GetEmbedded returns the embedded default for a key (no override
// resolution).
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// ExtractVariables extracts template variable names from a Go template
// string. For example, "Hello {{.Name}}, {{.Count}} items" returns
// ["Count", "Name"]. Nested fields like {{.Post.Title}} return
// "Post.Title".
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string

	for _, match := range matches {
		if len(match) > 1 {
			varName := match[1]
			if !seen[varName] {
				seen[varName] = true
				vars = append(vars, varName)
			}
		}
	}

	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
