// Package places resolves place names against the Google Places API
// and builds the lookup data the extract stage merges into candidates.
package places

import (
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

	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/pipeline"
)

const (
	// ProviderName identifies this provider in call records.
	ProviderName = "google-places"

	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"
	defaultTimeout = 15 * time.Second

	// detailFields limits the details response to what the pipeline
	// actually stores.
	detailFields = "name,formatted_address,opening_hours,website,formatted_phone_number"
)

// Config holds configuration for the Places client.
type Config struct {
	APIKey     string
	MaxRetries int           // Total attempts per request
	RetryDelay time.Duration // Base delay between attempts
	Timeout    time.Duration // HTTP timeout
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// Client implements geographic lookups over the Places text search and
// details endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	rec        *calllog.Recorder
	log        *slog.Logger
}

// NewClient creates a Places client.
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

// Enrich searches for the place and pulls address, hours, website and
// a maps link out of the details endpoint. A clean miss returns an
// Enrichment with HasValidLocation false and no error; only transport
// and API failures surface as errors.
func (c *Client) Enrich(ctx context.Context, name, locationHint string) (*pipeline.Enrichment, error) {
	query := strings.TrimSpace(name)
	if locationHint != "" {
		query += " " + locationHint
	}

	start := time.Now()
	enrichment, err := c.lookup(ctx, query)

	call := calllog.Call{
		Kind:      calllog.KindEnrich,
		Provider:  ProviderName,
		LatencyMs: int(time.Since(start).Milliseconds()),
		Success:   err == nil,
	}
	if err != nil {
		call.Error = err.Error()
		c.rec.Record(ctx, call)
		return nil, fmt.Errorf("place lookup failed: %w", err)
	}
	call.Response = enrichment.FormattedAddress
	c.rec.Record(ctx, call)

	return enrichment, nil
}

func (c *Client) lookup(ctx context.Context, query string) (*pipeline.Enrichment, error) {
	candidate, err := c.searchPlace(ctx, query)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		c.log.Debug("no places result", "query", query)
		return &pipeline.Enrichment{}, nil
	}

	details, err := c.placeDetails(ctx, candidate.PlaceID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		c.log.Debug("no place details", "place_id", candidate.PlaceID)
		return &pipeline.Enrichment{PlaceID: candidate.PlaceID}, nil
	}

	enrichment := &pipeline.Enrichment{
		PlaceID:          candidate.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Website:          details.Website,
		Hours:            strings.Join(details.OpeningHours.WeekdayText, "\n"),
	}
	switch {
	case candidate.PlaceID != "":
		enrichment.MapsLink = MapsLink(candidate.PlaceID, "", "")
		enrichment.HasValidLocation = true
	case details.FormattedAddress != "":
		enrichment.MapsLink = MapsLink("", "", details.FormattedAddress)
		enrichment.HasValidLocation = true
	}

	return enrichment, nil
}

// MapsLink builds a Google Maps link, preferring place ID over address
// over bare name.
func MapsLink(placeID, name, address string) string {
	switch {
	case placeID != "":
		return "https://maps.google.com/maps/place/?q=place_id:" + placeID
	case address != "":
		return "https://maps.google.com/maps/search/" + neturl.QueryEscape(address)
	case name != "":
		return "https://maps.google.com/maps/search/" + neturl.QueryEscape(name)
	}
	return ""
}

type searchResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

type searchResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []searchResult `json:"results"`
}

func (c *Client) searchPlace(ctx context.Context, query string) (*searchResult, error) {
	params := neturl.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)

	var parsed searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/textsearch/json?"+params.Encode(), &parsed); err != nil {
		return nil, err
	}

	switch parsed.Status {
	case "OK":
		if len(parsed.Results) == 0 {
			return nil, nil
		}
		return &parsed.Results[0], nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, statusFailure("text search", parsed.Status, parsed.ErrorMessage)
	}
}

type placeDetails struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Website          string `json:"website"`
	OpeningHours     struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

type detailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Result       *placeDetails `json:"result"`
}

func (c *Client) placeDetails(ctx context.Context, placeID string) (*placeDetails, error) {
	params := neturl.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("key", c.apiKey)

	var parsed detailsResponse
	if err := c.getJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &parsed); err != nil {
		return nil, err
	}

	switch parsed.Status {
	case "OK":
		return parsed.Result, nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, nil
	default:
		return nil, statusFailure("place details", parsed.Status, parsed.ErrorMessage)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return fmt.Errorf("build places request: %w", err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("places request: %w", err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read places response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return &httpError{code: resp.StatusCode}
			}

			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode places response: %w", err)
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

func statusFailure(op, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s returned %s: %s", op, status, message)
	}
	return fmt.Errorf("%s returned %s", op, status)
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("places API status %d", e.code)
}

func isRetryable(err error) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.code == http.StatusTooManyRequests || he.code >= 500
	}
	var ue *neturl.Error
	return errors.As(err, &ue)
}
