package transcribe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/wandr/internal/calllog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeMediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media.mp4")
	if err := os.WriteFile(path, []byte("fake-mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	var gotModel string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		gotFile, err = io.ReadAll(f)
		if err != nil {
			t.Fatalf("read form file: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  Try the tasting menu at Golden Dragon.  "}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, nil, testLogger())

	text, err := client.Transcribe(context.Background(), writeMediaFile(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "Try the tasting menu at Golden Dragon." {
		t.Fatalf("unexpected transcript: %q", text)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("expected default model whisper-1, got %q", gotModel)
	}
	if string(gotFile) != "fake-mp4-bytes" {
		t.Fatalf("unexpected uploaded bytes: %q", string(gotFile))
	}
}

func TestTranscribeEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, testLogger())

	text, err := client.Transcribe(context.Background(), writeMediaFile(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript for silent audio, got %q", text)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"unsupported audio format","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, nil, testLogger())

	_, err := client.Transcribe(context.Background(), writeMediaFile(t))
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "transcription failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status in error, got: %v", err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key"}, nil, testLogger())

	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"))
	if err == nil {
		t.Fatal("expected error for missing media file")
	}
	if !strings.Contains(err.Error(), "open media file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTranscribeRecordsCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello"}`))
	}))
	defer server.Close()

	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	rec := calllog.NewRecorder(logPath, testLogger())

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL}, rec, testLogger())

	ctx := calllog.WithRunID(context.Background(), "run-42")
	if _, err := client.Transcribe(ctx, writeMediaFile(t)); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	calls, err := calllog.List(logPath, calllog.QueryFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(calls))
	}
	if calls[0].Kind != calllog.KindTranscribe {
		t.Fatalf("unexpected call kind: %q", calls[0].Kind)
	}
	if calls[0].RunID != "run-42" {
		t.Fatalf("expected run ID from context, got %q", calls[0].RunID)
	}
	if !calls[0].Success {
		t.Fatal("expected call to record success")
	}
}
