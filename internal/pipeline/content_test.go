package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func contentOpts(mode Mode) Options {
	opts, err := NewOptions(Options{URL: "https://example.com/v/1", Mode: mode})
	if err != nil {
		panic(err)
	}
	return opts
}

func TestContentMetadataOnly(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{
		Kind:        KindMetadataOnly,
		Title:       "Lunch spots",
		Description: "Best dumplings in Chinatown",
	}}
	transcriber := &fakeTranscriber{text: "should not be called"}
	reader := &fakeReader{}

	cmd := NewContentCommand(fetcher, transcriber, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeMetadataOnly))

	if !res.Success() {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	if res.CombinedText != "Best dumplings in Chinatown" {
		t.Errorf("combined = %q, want description verbatim", res.CombinedText)
	}
	if res.Transcript != "" || len(res.FrameTexts) != 0 {
		t.Error("metadata-only must not carry transcript or frame text")
	}
	if transcriber.calls != 0 || reader.calls != 0 {
		t.Error("metadata-only must not touch transcriber or reader")
	}
}

func TestContentFullMode(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{
		Kind:      KindVideo,
		MediaPath: "/tmp/v.mp4",
		Images: []ImageRef{
			{Source: "frame_0s", Path: "/tmp/f0.jpg"},
			{Source: "frame_3s", Path: "/tmp/f1.jpg"},
		},
	}}
	transcriber := &fakeTranscriber{text: "try the soup dumplings"}
	reader := &fakeReader{fragments: []SourceText{
		{Source: "frame_0s", Text: "Golden Dragon"},
		{Source: "frame_3s", Text: "open till late"},
	}}

	cmd := NewContentCommand(fetcher, transcriber, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if !res.Success() {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	want := "Audio: try the soup dumplings\nFrame: Golden Dragon\nFrame: open till late"
	if res.CombinedText != want {
		t.Errorf("combined = %q, want %q", res.CombinedText, want)
	}
	if fetcher.got.FrameInterval != DefaultFrameInterval || fetcher.got.MaxFrames != DefaultMaxFrames {
		t.Errorf("sampling params not forwarded: %+v", fetcher.got)
	}
}

func TestContentFullModeReaderFailure(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{
		Kind:      KindVideo,
		MediaPath: "/tmp/v.mp4",
		Images:    []ImageRef{{Source: "frame_0s", Path: "/tmp/f0.jpg"}},
	}}
	transcriber := &fakeTranscriber{text: "hidden gem in soho"}
	reader := &fakeReader{err: errors.New("vision quota exceeded")}

	cmd := NewContentCommand(fetcher, transcriber, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if res.Status != StatusPartial {
		t.Fatalf("status = %q, want partial", res.Status)
	}
	if res.CombinedText != "Audio: hidden gem in soho" {
		t.Errorf("transcript should survive reader failure, combined = %q", res.CombinedText)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "vision quota") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestContentFullModeTranscriptionFailure(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{
		Kind:      KindVideo,
		MediaPath: "/tmp/v.mp4",
		Images:    []ImageRef{{Source: "frame_0s", Path: "/tmp/f0.jpg"}},
	}}
	transcriber := &fakeTranscriber{err: errors.New("model overloaded")}
	reader := &fakeReader{fragments: []SourceText{{Source: "frame_0s", Text: "Golden Dragon"}}}

	cmd := NewContentCommand(fetcher, transcriber, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if res.Status != StatusPartial {
		t.Fatalf("status = %q, want partial", res.Status)
	}
	if res.CombinedText != "Frame: Golden Dragon" {
		t.Errorf("frame text should survive transcription failure, combined = %q", res.CombinedText)
	}
}

func TestContentFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("video unavailable")}
	cmd := NewContentCommand(fetcher, &fakeTranscriber{}, &fakeReader{}, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if !res.Failed() {
		t.Fatalf("status = %q, want failed", res.Status)
	}
	if !strings.Contains(res.Error, "video unavailable") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestContentCarousel(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{
		Kind: KindCarousel,
		Images: []ImageRef{
			{Source: "image_1", Path: "/tmp/i1.jpg"},
			{Source: "image_2", Path: "/tmp/i2.jpg"},
		},
	}}
	reader := &fakeReader{fragments: []SourceText{
		{Source: "image_1", Text: "Taqueria El Rey"},
		{Source: "image_2", Text: "cash only"},
	}}

	cmd := NewContentCommand(fetcher, nil, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeCarousel))

	if !res.Success() {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	if res.CombinedText != "Images: Taqueria El Rey cash only" {
		t.Errorf("combined = %q", res.CombinedText)
	}
}

func TestContentCarouselWithoutReader(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{Kind: KindCarousel}}
	cmd := NewContentCommand(fetcher, &fakeTranscriber{}, nil, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeCarousel))

	if !res.Failed() {
		t.Fatalf("status = %q, want failed when mode mandates an unavailable reader", res.Status)
	}
	if fetcher.calls != 0 {
		t.Error("capability check must run before any fetch")
	}
}

func TestContentFullWithoutTranscriber(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{Kind: KindVideo, MediaPath: "/tmp/v.mp4"}}
	cmd := NewContentCommand(fetcher, nil, &fakeReader{}, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if !res.Failed() {
		t.Fatalf("status = %q, want failed when mode mandates an unavailable transcriber", res.Status)
	}
}

func TestContentAudioOnlyNoSpeech(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{Kind: KindVideo, MediaPath: "/tmp/v.mp4"}}
	transcriber := &fakeTranscriber{text: ""}

	cmd := NewContentCommand(fetcher, transcriber, nil, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeAudioOnly))

	if !res.Success() {
		t.Fatalf("status = %q, error = %q; silence is not an error", res.Status, res.Error)
	}
	if res.CombinedText != "" {
		t.Errorf("combined = %q, want empty", res.CombinedText)
	}
}

func TestContentAudioOnlyMissingMedia(t *testing.T) {
	fetcher := &fakeFetcher{media: &Media{Kind: KindVideo}}
	cmd := NewContentCommand(fetcher, &fakeTranscriber{}, nil, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeAudioOnly))

	if !res.Failed() {
		t.Fatalf("status = %q, want failed when fetch produced no media file", res.Status)
	}
}

func TestContentFullModeCarouselOverride(t *testing.T) {
	// A photo post fetched in full mode has no audio track; the
	// carousel path runs instead and the transcriber stays idle.
	fetcher := &fakeFetcher{media: &Media{
		Kind:   KindCarousel,
		Images: []ImageRef{{Source: "image_1", Path: "/tmp/i1.jpg"}},
	}}
	transcriber := &fakeTranscriber{text: "should not be called"}
	reader := &fakeReader{fragments: []SourceText{{Source: "image_1", Text: "menu"}}}

	cmd := NewContentCommand(fetcher, transcriber, reader, testLogger())
	res := cmd.Run(context.Background(), contentOpts(ModeFull))

	if !res.Success() {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	if transcriber.calls != 0 {
		t.Error("transcriber must not run for carousel content")
	}
	if res.CombinedText != "Images: menu" {
		t.Errorf("combined = %q", res.CombinedText)
	}
}
