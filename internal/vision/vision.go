// Package vision pulls visible text out of still images using the
// Google Vision API. Short-form food videos carry most of their
// signal as burned-in captions, so frame OCR is often the only source
// of place names.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/pipeline"
)

const (
	// ProviderName identifies this provider in call records.
	ProviderName = "google-vision"

	defaultBaseURL = "https://vision.googleapis.com/v1"
	defaultTimeout = 30 * time.Second

	// maxResults caps annotations per image. Only the first, full-text
	// annotation is used, but the API wants a bound.
	maxResults = 50
)

// Config holds configuration for the Vision client.
type Config struct {
	APIKey     string
	MaxRetries int           // Total attempts per image
	RetryDelay time.Duration // Base delay between attempts
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// Client implements text detection over local image files.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	rec        *calllog.Recorder
	log        *slog.Logger
}

// NewClient creates a Vision client.
func NewClient(cfg Config, rec *calllog.Recorder, logger *slog.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		httpClient: httpClient,
		rec:        rec,
		log:        logger,
	}
}

// ReadText runs text detection over each image and returns the
// non-empty fragments in input order. Per-image failures are logged
// and their fragments omitted; an error comes back only when no image
// could be processed at all.
func (c *Client) ReadText(ctx context.Context, images []pipeline.ImageRef) ([]pipeline.SourceText, error) {
	if len(images) == 0 {
		return nil, nil
	}

	var texts []pipeline.SourceText
	processed := 0
	var lastErr error

	for _, img := range images {
		text, err := c.readImage(ctx, img.Path)
		if err != nil {
			lastErr = err
			c.log.Warn("text detection failed for image", "source", img.Source, "error", err)
			continue
		}
		processed++
		if text == "" {
			continue
		}
		texts = append(texts, pipeline.SourceText{Source: img.Source, Text: text})
	}

	if processed == 0 {
		return nil, fmt.Errorf("text detection failed for all %d images: %w", len(images), lastErr)
	}
	return texts, nil
}

func (c *Client) readImage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	body := annotateRequest{
		Requests: []imageRequest{{
			Image:    imageContent{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []feature{{Type: "TEXT_DETECTION", MaxResults: maxResults}},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal annotate request: %w", err)
	}

	start := time.Now()
	var text string
	err = retry.Do(
		func() error {
			var callErr error
			text, callErr = c.annotate(ctx, payload)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)

	call := calllog.Call{
		Kind:      calllog.KindOCR,
		Provider:  ProviderName,
		LatencyMs: int(time.Since(start).Milliseconds()),
		Success:   err == nil,
	}
	if err != nil {
		call.Error = err.Error()
	} else {
		call.Response = text
	}
	c.rec.Record(ctx, call)

	return text, err
}

func (c *Client) annotate(ctx context.Context, payload []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/images:annotate?key=%s", c.baseURL, neturl.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: truncate(raw, 200)}
	}

	var parsed annotateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("vision API error: %s", parsed.Error.Message)
	}
	if len(parsed.Responses) == 0 {
		return "", nil
	}

	first := parsed.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("vision API error: %s", first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 {
		return "", nil
	}

	// The first annotation holds the full detected text; the rest are
	// per-word boxes.
	return normalizeWhitespace(first.TextAnnotations[0].Description), nil
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
	Error     *apiStatus      `json:"error,omitempty"`
}

type imageResponse struct {
	TextAnnotations []textAnnotation `json:"textAnnotations"`
	Error           *apiStatus       `json:"error,omitempty"`
}

type textAnnotation struct {
	Description string `json:"description"`
}

type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vision API status %d: %s", e.code, e.body)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var ue *neturl.Error
	return errors.As(err, &ue)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
