package analyze

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jackzampolin/wandr/internal/calllog"
	"github.com/jackzampolin/wandr/internal/prompts"
	"github.com/jackzampolin/wandr/internal/prompts/extract_places"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

func chatResponse(t *testing.T, content string) string {
	t.Helper()
	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal chat response: %v", err)
	}
	return string(raw)
}

const validEnvelope = `{
	"content_analysis": {"content_type": "single_place", "confidence_score": 0.9, "primary_focus": "dim sum restaurant"},
	"places": [{
		"name": "Golden Dragon",
		"address": "123 Mott St, New York, NY",
		"neighborhood": "Chinatown",
		"categories": ["restaurant", "chinese"],
		"recommendations": "soup dumplings, scallion pancakes",
		"hours": "Daily 11am-10pm",
		"website": "https://goldendragon.example",
		"is_popup": false
	}],
	"area_info": {"area_theme": "", "total_places_mentioned": 1, "area_description": ""}
}`

func TestAnalyzeSuccess(t *testing.T) {
	var payload chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, validEnvelope)))
	}))
	defer server.Close()

	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	rec := calllog.NewRecorder(logPath, testLogger())

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, rec, testLogger())

	places, err := client.Analyze(context.Background(), "Audio: best soup dumplings\nFrame: Golden Dragon", []string{"restaurant"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
	p := places[0]
	if p.Name != "Golden Dragon" {
		t.Fatalf("unexpected name: %q", p.Name)
	}
	if p.Address != "123 Mott St, New York, NY" {
		t.Fatalf("unexpected address: %q", p.Address)
	}
	if p.Hours != "Daily 11am-10pm" {
		t.Fatalf("unexpected hours: %q", p.Hours)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "restaurant" {
		t.Fatalf("unexpected categories: %+v", p.Categories)
	}

	if payload.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model gpt-4o-mini, got %q", payload.Model)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(payload.Messages))
	}
	if payload.Messages[0].Role != "system" {
		t.Fatalf("expected first message to be system, got %q", payload.Messages[0].Role)
	}
	userContent, _ := payload.Messages[1].Content.(string)
	if !strings.Contains(userContent, "Golden Dragon") {
		t.Fatalf("expected content text in user prompt, got: %q", userContent)
	}
	if !strings.Contains(userContent, "Expected categories: restaurant") {
		t.Fatalf("expected category hints in user prompt, got: %q", userContent)
	}

	calls, err := calllog.List(logPath, calllog.QueryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].InputTokens != 120 || calls[0].OutputTokens != 40 {
		t.Fatalf("unexpected token usage: %d/%d", calls[0].InputTokens, calls[0].OutputTokens)
	}
	if calls[0].PromptKey != extract_places.SystemPromptKey {
		t.Fatalf("unexpected prompt key: %q", calls[0].PromptKey)
	}
}

func TestAnalyzeFencedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n" + validEnvelope + "\n```"
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, fenced)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, nil, testLogger())

	places, err := client.Analyze(context.Background(), "some text", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(places) != 1 || places[0].Name != "Golden Dragon" {
		t.Fatalf("unexpected places: %+v", places)
	}
}

func TestAnalyzeRepairLoop(t *testing.T) {
	var mu sync.Mutex
	var requests []chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}

		mu.Lock()
		requests = append(requests, req)
		n := len(requests)
		mu.Unlock()

		content := `{"not_places": true}`
		if n > 1 {
			content = validEnvelope
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, content)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, nil, testLogger())

	places, err := client.Analyze(context.Background(), "some text", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("expected 1 place after repair, got %d", len(places))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 2 {
		t.Fatalf("expected 2 round trips, got %d", len(requests))
	}
	second := requests[1]
	if len(second.Messages) != 4 {
		t.Fatalf("expected system+user+assistant+repair messages, got %d", len(second.Messages))
	}
	if second.Messages[2].Role != "assistant" {
		t.Fatalf("expected third message to be the failed output, got role %q", second.Messages[2].Role)
	}
	repair, _ := second.Messages[3].Content.(string)
	if !strings.Contains(repair, "Validation issue") {
		t.Fatalf("expected repair prompt, got: %q", repair)
	}
}

func TestAnalyzeGivesUpAfterRepairs(t *testing.T) {
	var hits int
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, "this is not json at all")))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, nil, testLogger())

	_, err := client.Analyze(context.Background(), "some text", nil)
	if err == nil {
		t.Fatal("expected error after exhausted repair attempts")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 3 {
		t.Fatalf("expected 3 round trips, got %d", hits)
	}
}

func TestAnalyzeEmptyPlaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		empty := `{"content_analysis":{"content_type":"unknown","confidence_score":0,"primary_focus":""},"places":[],"area_info":{"area_theme":"","total_places_mentioned":0,"area_description":""}}`
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, empty)))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, nil, testLogger())

	places, err := client.Analyze(context.Background(), "nothing useful here", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(places) != 0 {
		t.Fatalf("expected no places, got %d", len(places))
	}
}

func TestAnalyzeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"context length exceeded","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, nil, testLogger())

	_, err := client.Analyze(context.Background(), "some text", nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "place extraction failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzePromptOverride(t *testing.T) {
	var payload chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatResponse(t, validEnvelope)))
	}))
	defer server.Close()

	overrideDir := t.TempDir()
	overrideText := "You only ever extract taco spots."
	overridePath := filepath.Join(overrideDir, extract_places.SystemPromptKey+".txt")
	if err := os.WriteFile(overridePath, []byte(overrideText), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	resolver := prompts.NewResolver(overrideDir, testLogger())
	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, resolver, nil, testLogger())

	if _, err := client.Analyze(context.Background(), "some text", nil); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	system, _ := payload.Messages[0].Content.(string)
	if system != overrideText {
		t.Fatalf("expected override system prompt, got: %q", system)
	}
}
