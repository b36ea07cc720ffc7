package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ContentCommand runs the content stage: fetch media for a URL and
// reduce it to combined text according to the mode.
type ContentCommand struct {
	fetcher     MediaFetcher
	transcriber Transcriber
	reader      TextReader
	log         *slog.Logger
}

// NewContentCommand wires the content stage. The transcriber and
// reader may be nil when the deployment has no credentials for them;
// modes that mandate a missing capability fail up front, before any
// fetch happens.
func NewContentCommand(fetcher MediaFetcher, transcriber Transcriber, reader TextReader, log *slog.Logger) *ContentCommand {
	if log == nil {
		log = slog.Default()
	}
	return &ContentCommand{fetcher: fetcher, transcriber: transcriber, reader: reader, log: log}
}

// Run fetches the URL's content and assembles the combined text.
// Operational failures land in the result's status, never in a panic
// or error return. Sub-capability failures after a successful fetch
// degrade the result to partial; only a fetch failure or a missing
// mandated capability fails the stage.
func (c *ContentCommand) Run(ctx context.Context, opts Options) *ContentResult {
	res := &ContentResult{URL: opts.URL}
	log := c.log.With("url", opts.URL, "mode", opts.Mode)

	if err := c.checkCapabilities(opts.Mode); err != nil {
		res.StageResult = stageFailed(err)
		return res
	}

	log.Info("fetching content")
	media, err := c.fetcher.Fetch(ctx, FetchRequest{
		URL:           opts.URL,
		Mode:          opts.Mode,
		WorkDir:       opts.WorkDir,
		FrameInterval: opts.FrameInterval,
		MaxFrames:     opts.MaxFrames,
	})
	if err != nil {
		res.StageResult = stageFailed(fmt.Errorf("%w: fetch: %v", ErrContentProcessing, err))
		return res
	}
	res.Kind = media.Kind
	res.Title = media.Title
	res.Description = media.Description

	switch {
	case opts.Mode == ModeMetadataOnly:
		res.CombinedText = media.Description
		res.StageResult = succeeded()
	case opts.Mode == ModeAudioOnly:
		res.StageResult = c.processAudio(ctx, log, media, res)
	case opts.Mode == ModeCarousel || media.Kind == KindCarousel:
		// A photo post fetched in full mode follows the carousel
		// path; there is no audio track to transcribe.
		res.StageResult = c.processCarousel(ctx, log, media, res)
	default:
		res.StageResult = c.processVideo(ctx, log, media, res)
	}

	if !res.Failed() {
		res.Meta = contentMeta(res)
	}
	log.Debug("content stage finished", "status", res.Status, "combined_chars", len(res.CombinedText))
	return res
}

// checkCapabilities rejects modes whose mandated capability was never
// configured. Runtime failures of a configured capability degrade the
// result instead of failing the stage.
func (c *ContentCommand) checkCapabilities(mode Mode) error {
	if c.fetcher == nil {
		return fmt.Errorf("%w: no media fetcher configured", ErrContentProcessing)
	}
	switch mode {
	case ModeFull:
		if c.transcriber == nil {
			return fmt.Errorf("%w: mode %s requires a transcriber", ErrContentProcessing, mode)
		}
		if c.reader == nil {
			return fmt.Errorf("%w: mode %s requires an image text reader", ErrContentProcessing, mode)
		}
	case ModeAudioOnly:
		if c.transcriber == nil {
			return fmt.Errorf("%w: mode %s requires a transcriber", ErrContentProcessing, mode)
		}
	case ModeCarousel:
		if c.reader == nil {
			return fmt.Errorf("%w: mode %s requires an image text reader", ErrContentProcessing, mode)
		}
	}
	return nil
}

func (c *ContentCommand) processAudio(ctx context.Context, log *slog.Logger, media *Media, res *ContentResult) StageResult {
	if media.MediaPath == "" {
		return stageFailed(fmt.Errorf("%w: fetch returned no media file", ErrContentProcessing))
	}

	var warnings []string
	transcript, err := c.transcriber.Transcribe(ctx, media.MediaPath)
	if err != nil {
		log.Warn("transcription failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("transcription: %v", err))
	} else {
		res.Transcript = transcript
	}

	if res.Transcript != "" {
		res.CombinedText = "Audio: " + res.Transcript
	}
	return withWarnings(warnings)
}

func (c *ContentCommand) processCarousel(ctx context.Context, log *slog.Logger, media *Media, res *ContentResult) StageResult {
	if len(media.Images) == 0 {
		return stageFailed(fmt.Errorf("%w: no images in carousel download", ErrContentProcessing))
	}

	var warnings []string
	log.Debug("reading carousel images", "count", len(media.Images))
	fragments, err := c.reader.ReadText(ctx, media.Images)
	if err != nil {
		log.Warn("image text extraction failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("image text: %v", err))
	} else {
		res.FrameTexts = fragments
	}

	res.CombinedText = combineCarouselText(res.FrameTexts)
	return withWarnings(warnings)
}

func (c *ContentCommand) processVideo(ctx context.Context, log *slog.Logger, media *Media, res *ContentResult) StageResult {
	if media.MediaPath == "" {
		return stageFailed(fmt.Errorf("%w: video file not found after download", ErrContentProcessing))
	}

	var warnings []string
	transcript, err := c.transcriber.Transcribe(ctx, media.MediaPath)
	if err != nil {
		log.Warn("transcription failed", "error", err)
		warnings = append(warnings, fmt.Sprintf("transcription: %v", err))
	} else {
		res.Transcript = transcript
	}

	if len(media.Images) > 0 {
		log.Debug("reading frame text", "frames", len(media.Images))
		fragments, err := c.reader.ReadText(ctx, media.Images)
		if err != nil {
			log.Warn("frame text extraction failed", "error", err)
			warnings = append(warnings, fmt.Sprintf("frame text: %v", err))
		} else {
			res.FrameTexts = fragments
		}
	}

	res.CombinedText = combineVideoText(res.Transcript, res.FrameTexts)
	return withWarnings(warnings)
}

// combineVideoText builds the analyzer input for video content: one
// labeled transcript line followed by one line per frame fragment.
func combineVideoText(transcript string, frames []SourceText) string {
	var lines []string
	if transcript != "" {
		lines = append(lines, "Audio: "+transcript)
	}
	for _, frame := range frames {
		if frame.Text != "" {
			lines = append(lines, "Frame: "+frame.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// combineCarouselText folds all carousel fragments into one labeled
// line.
func combineCarouselText(fragments []SourceText) string {
	var texts []string
	for _, fragment := range fragments {
		if fragment.Text != "" {
			texts = append(texts, fragment.Text)
		}
	}
	if len(texts) == 0 {
		return ""
	}
	return "Images: " + strings.Join(texts, " ")
}

func contentMeta(res *ContentResult) map[string]any {
	meta := map[string]any{"kind": string(res.Kind)}
	if res.Transcript != "" {
		meta["transcript_chars"] = len(res.Transcript)
	}
	if len(res.FrameTexts) > 0 {
		meta["fragments"] = len(res.FrameTexts)
	}
	return meta
}
