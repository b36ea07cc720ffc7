// Package analyze turns combined video text into place candidates
// using an OpenAI chat model with schema-validated JSON output.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/pipeline"
	"github.com/jackzampolin/wandr/internal/prompts"
	"github.com/jackzampolin/wandr/internal/prompts/extract_places"
)

const (
	// ProviderName identifies this provider in call records.
	ProviderName = "openai"

	defaultModel       = openai.ChatModelGPT4oMini
	defaultTemperature = 0.1
	defaultTimeout     = 60 * time.Second

	// maxRepairAttempts limits self-repair round trips when model
	// output fails parsing or schema validation.
	maxRepairAttempts = 2
)

// Config holds configuration for the analysis client.
type Config struct {
	APIKey      string
	Model       string        // "gpt-4o-mini" (default)
	Temperature float64       // 0.1 (default)
	MaxRetries  int           // Retry attempts for SDK transport
	Timeout     time.Duration // HTTP timeout
	BaseURL     string        // Optional (tests)
	HTTPClient  *http.Client  // Optional (tests)
}

// Client extracts place candidates from content text via the official
// OpenAI SDK.
type Client struct {
	model       string
	temperature float64
	client      openai.Client
	resolver    *prompts.Resolver
	rec         *calllog.Recorder
	log         *slog.Logger
}

// NewClient creates an analysis client. The resolver may be nil, in
// which case embedded prompt defaults are used without overrides.
func NewClient(cfg Config, resolver *prompts.Resolver, rec *calllog.Recorder, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = prompts.NewResolver("", logger)
	}
	extract_places.RegisterPrompts(resolver)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      openai.NewClient(opts...),
		resolver:    resolver,
		rec:         rec,
		log:         logger,
	}
}

// Model returns the configured analysis model.
func (c *Client) Model() string {
	return c.model
}

// Analyze extracts place candidates from combined content text. An
// empty slice is a normal outcome for content without clear location
// information. Output that fails schema validation triggers a repair
// round trip before giving up.
func (c *Client) Analyze(ctx context.Context, text string, hints []string) ([]pipeline.Place, error) {
	system, user, promptVersion := c.renderPrompts(text, hints)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(user),
	}
	schema := extract_places.ValidationSchema()

	var lastIssue error
	for attempt := 0; attempt <= maxRepairAttempts; attempt++ {
		content, err := c.complete(ctx, messages, promptVersion)
		if err != nil {
			return nil, err
		}

		parsed, err := parseStructuredJSON(content)
		if err == nil {
			err = validateStructuredJSON(schema, parsed)
		}
		if err != nil {
			lastIssue = err
			c.log.Warn("analysis output failed validation", "attempt", attempt+1, "error", err)
			messages = append(messages,
				openai.AssistantMessage(content),
				openai.UserMessage(repairPrompt(schema, content, err)),
			)
			continue
		}

		result, err := extract_places.ParseResult(parsed)
		if err != nil {
			return nil, fmt.Errorf("decode extraction result: %w", err)
		}

		c.log.Debug("analysis complete",
			"content_type", result.ContentAnalysis.ContentType,
			"places", len(result.Places))
		return toPlaces(result), nil
	}

	return nil, fmt.Errorf("analysis output failed validation after %d attempts: %w", maxRepairAttempts+1, lastIssue)
}

// complete makes one chat completion round trip and records it.
func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, promptVersion string) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})

	call := calllog.Call{
		Kind:          calllog.KindAnalyze,
		Provider:      ProviderName,
		Model:         c.model,
		PromptKey:     extract_places.SystemPromptKey,
		PromptVersion: promptVersion,
		LatencyMs:     int(time.Since(start).Milliseconds()),
		Success:       err == nil,
	}
	if err != nil {
		err = mapAPIError(err)
		call.Error = err.Error()
		c.rec.Record(ctx, call)
		return "", fmt.Errorf("place extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		call.Success = false
		call.Error = "no choices in response"
		c.rec.Record(ctx, call)
		return "", fmt.Errorf("place extraction returned no choices")
	}

	content := resp.Choices[0].Message.Content
	call.Response = content
	call.InputTokens = int(resp.Usage.PromptTokens)
	call.OutputTokens = int(resp.Usage.CompletionTokens)
	c.rec.Record(ctx, call)

	return content, nil
}

func (c *Client) renderPrompts(text string, hints []string) (system, user, version string) {
	system = extract_places.SystemPrompt()
	if resolved, err := c.resolver.Resolve(extract_places.SystemPromptKey); err == nil {
		system = resolved.Text
		version = resolved.Version
	}

	user = extract_places.UserPrompt(text, hints)
	if resolved, err := c.resolver.Resolve(extract_places.UserPromptKey); err == nil && resolved.IsOverride {
		user = extract_places.RenderUserPrompt(resolved.Text, extract_places.UserPromptData{
			ContentText: text,
			Categories:  strings.Join(hints, ", "),
		})
	}

	return system, user, version
}

func toPlaces(result *extract_places.Result) []pipeline.Place {
	places := make([]pipeline.Place, 0, len(result.Places))
	for _, p := range result.Places {
		places = append(places, pipeline.Place{
			Name:            p.Name,
			Address:         p.Address,
			Neighborhood:    p.Neighborhood,
			Categories:      p.Categories,
			Recommendations: p.Recommendations,
			Hours:           p.Hours,
			Website:         p.Website,
			IsPopup:         p.IsPopup,
		})
	}
	return places
}

func mapAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI chat error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI chat error (status %d)", apiErr.StatusCode)
	}
	return err
}
