// Package transcribe converts speech in downloaded media to text using
// OpenAI's transcription API.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/wandr/internal/calllog"
)

const (
	// ProviderName identifies this provider in call records.
	ProviderName = "openai"

	defaultModel   = openai.AudioModelWhisper1
	defaultTimeout = 120 * time.Second
)

// Config holds configuration for the transcription client.
type Config struct {
	APIKey     string
	Model      string        // "whisper-1" (default), "gpt-4o-transcribe", "gpt-4o-mini-transcribe"
	MaxRetries int           // Retry attempts for SDK transport
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// Client transcribes downloaded media files via the official OpenAI SDK.
type Client struct {
	model  string
	client openai.Client
	rec    *calllog.Recorder
	log    *slog.Logger
}

// NewClient creates a transcription client.
func NewClient(cfg Config, rec *calllog.Recorder, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
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
		model:  cfg.Model,
		client: openai.NewClient(opts...),
		rec:    rec,
		log:    logger,
	}
}

// Model returns the configured transcription model.
func (c *Client) Model() string {
	return c.model
}

// Transcribe extracts speech from the media file at mediaPath. An empty
// string with a nil error means the audio carried no usable speech.
func (c *Client) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	transcription, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(c.model),
	})

	call := calllog.Call{
		Kind:      calllog.KindTranscribe,
		Provider:  ProviderName,
		Model:     c.model,
		LatencyMs: int(time.Since(start).Milliseconds()),
		Success:   err == nil,
	}
	if err != nil {
		err = mapAPIError(err)
		call.Error = err.Error()
		c.rec.Record(ctx, call)
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(transcription.Text)
	call.Response = text
	c.rec.Record(ctx, call)

	c.log.Debug("transcription complete", "model", c.model, "chars", len(text))
	return text, nil
}

func mapAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI transcription error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI transcription error (status %d)", apiErr.StatusCode)
	}
	return err
}
