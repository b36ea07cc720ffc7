package pipeline

import (
	"errors"
	"testing"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts, err := NewOptions(Options{URL: " https://example.com/v/1 "})
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	if opts.URL != "https://example.com/v/1" {
		t.Errorf("URL not trimmed: %q", opts.URL)
	}
	if opts.Mode != ModeFull {
		t.Errorf("Mode = %q, want %q", opts.Mode, ModeFull)
	}
	if opts.FrameInterval != DefaultFrameInterval {
		t.Errorf("FrameInterval = %v, want %v", opts.FrameInterval, DefaultFrameInterval)
	}
	if opts.MaxFrames != DefaultMaxFrames {
		t.Errorf("MaxFrames = %d, want %d", opts.MaxFrames, DefaultMaxFrames)
	}
}

func TestNewOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing url", Options{}},
		{"blank url", Options{URL: "   "}},
		{"unknown mode", Options{URL: "https://example.com", Mode: Mode("livestream")}},
		{"publish without collection", Options{URL: "https://example.com", Publish: true}},
		{"publish with blank collection", Options{URL: "https://example.com", Publish: true, CollectionID: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOptions(tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v is not ErrConfiguration", err)
			}
		})
	}
}

func TestNewOptionsPublishWithCollection(t *testing.T) {
	opts, err := NewOptions(Options{URL: "https://example.com", Publish: true, CollectionID: "col-1"})
	if err != nil {
		t.Fatalf("NewOptions: %v", err)
	}
	if !opts.Publish || opts.CollectionID != "col-1" {
		t.Errorf("publish options not preserved: %+v", opts)
	}
}
