// Package notion adapts the Notion REST API to the pipeline's record
// store and work queue. Place entries land in one database; the batch
// queue of pending URLs lives in another.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	defaultTimeout = 30 * time.Second

	// notionVersion pins the API revision every request is made
	// against.
	notionVersion = "2022-06-28"

	queryPageSize = 100
)

// Config holds configuration for the Notion client.
type Config struct {
	APIKey     string
	MaxRetries int           // Total attempts per request
	RetryDelay time.Duration // Base delay between attempts
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)

	// Property names in the work queue database. Empty values take
	// the stock schema.
	URLProperty     string
	CreatedProperty string
	StatusProperty  string
	ModeProperty    string
}

// Client talks to the Notion API on behalf of the pipeline.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	log        *slog.Logger

	urlProperty     string
	createdProperty string
	statusProperty  string
	modeProperty    string
}

// NewClient creates a Notion client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
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
	if cfg.URLProperty == "" {
		cfg.URLProperty = "URL"
	}
	if cfg.CreatedProperty == "" {
		cfg.CreatedProperty = "Created"
	}
	if cfg.StatusProperty == "" {
		cfg.StatusProperty = "Status"
	}
	if cfg.ModeProperty == "" {
		cfg.ModeProperty = "Mode"
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:      cfg.MaxRetries,
		retryDelay:      cfg.RetryDelay,
		httpClient:      httpClient,
		log:             logger,
		urlProperty:     cfg.URLProperty,
		createdProperty: cfg.CreatedProperty,
		statusProperty:  cfg.StatusProperty,
		modeProperty:    cfg.ModeProperty,
	}
}

// apiError is a structured error response from the Notion API.
type apiError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("notion API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
}

// do performs one Notion API request with retries, decoding the JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode notion request: %w", err)
		}
	}

	return retry.Do(
		func() error {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}

			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
			if err != nil {
				return fmt.Errorf("build notion request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Notion-Version", notionVersion)
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("notion request: %w", err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read notion response: %w", err)
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				apiErr := &apiError{StatusCode: resp.StatusCode}
				if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
					apiErr.Code = "unknown"
					apiErr.Message = truncate(string(raw), 200)
				}
				return apiErr
			}

			if out != nil {
				if err := json.Unmarshal(raw, out); err != nil {
					return fmt.Errorf("decode notion response: %w", err)
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func isRetryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusTooManyRequests || ae.StatusCode >= 500
	}
	var ue *neturl.Error
	return errors.As(err, &ue)
}

// Ping verifies the API key by retrieving the bot user behind it.
// Used as a reachability probe by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/users/me", nil, nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type textFilter struct {
	Equals string `json:"equals"`
}

type selectFilter struct {
	Equals string `json:"equals"`
}

type dateFilter struct {
	OnOrAfter string `json:"on_or_after"`
}

// queryFilter is either one property condition or an "and" compound.
type queryFilter struct {
	And      []queryFilter `json:"and,omitempty"`
	Property string        `json:"property,omitempty"`
	Title    *textFilter   `json:"title,omitempty"`
	Select   *selectFilter `json:"select,omitempty"`
	Date     *dateFilter   `json:"date,omitempty"`
}

type queryRequest struct {
	Filter      *queryFilter `json:"filter,omitempty"`
	PageSize    int          `json:"page_size,omitempty"`
	StartCursor string       `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// queryAll walks a database query through cursor pagination.
func (c *Client) queryAll(ctx context.Context, databaseID string, filter *queryFilter) ([]page, error) {
	var (
		pages  []page
		cursor string
	)
	for {
		req := queryRequest{Filter: filter, PageSize: queryPageSize, StartCursor: cursor}
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", req, &resp); err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return pages, nil
}
