package places

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/wandr/internal/calllog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:     "places-key",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		BaseURL:    baseURL,
	}, nil, testLogger())
}

func searchBody(placeID string) string {
	body, _ := json.Marshal(map[string]any{
		"status": "OK",
		"results": []map[string]any{
			{"place_id": placeID, "name": "Golden Dragon", "formatted_address": "816 Washington St"},
		},
	})
	return string(body)
}

func detailsBody() string {
	body, _ := json.Marshal(map[string]any{
		"status": "OK",
		"result": map[string]any{
			"name":              "Golden Dragon",
			"formatted_address": "816 Washington St, San Francisco, CA 94108",
			"website":           "https://goldendragonsf.example.com",
			"opening_hours": map[string]any{
				"weekday_text": []string{
					"Monday: 10:00 AM - 9:00 PM",
					"Tuesday: 10:00 AM - 9:00 PM",
				},
			},
		},
	})
	return string(body)
}

func TestEnrichSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "Golden Dragon Chinatown, San Francisco" {
			t.Errorf("unexpected search query %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "places-key" {
			t.Errorf("unexpected key %q", got)
		}
		io.WriteString(w, searchBody("ChIJtest123"))
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("place_id"); got != "ChIJtest123" {
			t.Errorf("unexpected place_id %q", got)
		}
		if got := r.URL.Query().Get("fields"); got != detailFields {
			t.Errorf("unexpected fields %q", got)
		}
		io.WriteString(w, detailsBody())
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	enrichment, err := newClient(server.URL).Enrich(context.Background(), "Golden Dragon", "Chinatown, San Francisco")
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if !enrichment.HasValidLocation {
		t.Error("expected a valid location")
	}
	if enrichment.PlaceID != "ChIJtest123" {
		t.Errorf("unexpected place ID %q", enrichment.PlaceID)
	}
	if enrichment.FormattedAddress != "816 Washington St, San Francisco, CA 94108" {
		t.Errorf("unexpected address %q", enrichment.FormattedAddress)
	}
	if enrichment.Website != "https://goldendragonsf.example.com" {
		t.Errorf("unexpected website %q", enrichment.Website)
	}
	wantHours := "Monday: 10:00 AM - 9:00 PM\nTuesday: 10:00 AM - 9:00 PM"
	if enrichment.Hours != wantHours {
		t.Errorf("unexpected hours %q", enrichment.Hours)
	}
	if enrichment.MapsLink != "https://maps.google.com/maps/place/?q=place_id:ChIJtest123" {
		t.Errorf("unexpected maps link %q", enrichment.MapsLink)
	}
}

func TestEnrichNoResults(t *testing.T) {
	var detailsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ZERO_RESULTS","results":[]}`)
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		detailsHits.Add(1)
		io.WriteString(w, detailsBody())
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	enrichment, err := newClient(server.URL).Enrich(context.Background(), "Nonexistent Cafe", "")
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if enrichment.HasValidLocation {
		t.Error("expected no valid location for a clean miss")
	}
	if enrichment.PlaceID != "" || enrichment.MapsLink != "" {
		t.Errorf("expected empty enrichment, got %+v", enrichment)
	}
	if detailsHits.Load() != 0 {
		t.Error("details endpoint should not be called without a search hit")
	}
}

func TestEnrichNoDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, searchBody("ChIJgone456"))
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"NOT_FOUND"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	enrichment, err := newClient(server.URL).Enrich(context.Background(), "Golden Dragon", "")
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if enrichment.HasValidLocation {
		t.Error("place without details should not count as a valid location")
	}
	if enrichment.PlaceID != "ChIJgone456" {
		t.Errorf("unexpected place ID %q", enrichment.PlaceID)
	}
	if enrichment.MapsLink != "" {
		t.Errorf("unexpected maps link %q", enrichment.MapsLink)
	}
}

func TestEnrichAPIDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newClient(server.URL).Enrich(context.Background(), "Golden Dragon", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "place lookup failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "REQUEST_DENIED") || !strings.Contains(err.Error(), "API key is invalid") {
		t.Errorf("error should carry the API status and message: %v", err)
	}
}

func TestEnrichRetriesServerErrors(t *testing.T) {
	var searchHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		if searchHits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, searchBody("ChIJretry789"))
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, detailsBody())
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	enrichment, err := newClient(server.URL).Enrich(context.Background(), "Golden Dragon", "")
	if err != nil {
		t.Fatalf("Enrich failed after retry: %v", err)
	}
	if enrichment.PlaceID != "ChIJretry789" {
		t.Errorf("unexpected place ID %q", enrichment.PlaceID)
	}
	if searchHits.Load() != 2 {
		t.Errorf("expected 2 search attempts, got %d", searchHits.Load())
	}
}

func TestEnrichRecordsCall(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/textsearch/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, searchBody("ChIJtest123"))
	})
	mux.HandleFunc("/details/json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, detailsBody())
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	rec := calllog.NewRecorder(logPath, testLogger())
	client := NewClient(Config{
		APIKey:     "places-key",
		RetryDelay: time.Millisecond,
		BaseURL:    server.URL,
	}, rec, testLogger())

	ctx := calllog.WithRunID(context.Background(), "run-77")
	if _, err := client.Enrich(ctx, "Golden Dragon", ""); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	calls, err := calllog.List(logPath, calllog.QueryFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call record, got %d", len(calls))
	}
	call := calls[0]
	if call.Kind != calllog.KindEnrich || call.Provider != ProviderName {
		t.Errorf("unexpected call record: %+v", call)
	}
	if call.RunID != "run-77" {
		t.Errorf("unexpected run ID %q", call.RunID)
	}
	if !call.Success {
		t.Error("call should be recorded as successful")
	}
}

func TestMapsLink(t *testing.T) {
	tests := []struct {
		name    string
		placeID string
		place   string
		address string
		want    string
	}{
		{
			name:    "place id wins",
			placeID: "ChIJabc",
			place:   "Golden Dragon",
			address: "816 Washington St",
			want:    "https://maps.google.com/maps/place/?q=place_id:ChIJabc",
		},
		{
			name:    "address fallback",
			address: "816 Washington St, San Francisco",
			want:    "https://maps.google.com/maps/search/816+Washington+St%2C+San+Francisco",
		},
		{
			name:  "name fallback",
			place: "Golden Dragon",
			want:  "https://maps.google.com/maps/search/Golden+Dragon",
		},
		{
			name: "nothing to link",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapsLink(tt.placeID, tt.place, tt.address); got != tt.want {
				t.Errorf("MapsLink() = %q, want %q", got, tt.want)
			}
		})
	}
}
