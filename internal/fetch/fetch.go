// Package fetch downloads TikTok content for the pipeline: media
// files via yt-dlp, carousel images via the page's embedded JSON, and
// sampled frames via ffmpeg.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackzampolin/wandr/internal/pipeline"
)

// Config holds the external tool paths and network settings for the
// downloader.
type Config struct {
	// YtdlpPath is the yt-dlp binary. Defaults to "yt-dlp" on PATH.
	YtdlpPath string

	// FfmpegPath is the ffmpeg binary used for frame sampling.
	FfmpegPath string

	// FfprobePath is the ffprobe binary used to measure duration.
	FfprobePath string

	// Timeout bounds each subprocess and page fetch. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// UserAgent is sent on carousel page requests.
	UserAgent string

	// HTTPClient overrides the client used for page and image
	// downloads. Nil uses a client with Timeout applied.
	HTTPClient *http.Client
}

// DefaultTimeout bounds a single download subprocess.
const DefaultTimeout = 120 * time.Second

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Downloader fetches TikTok content. It implements
// pipeline.MediaFetcher.
type Downloader struct {
	cfg Config
	log *slog.Logger
}

// NewDownloader builds a Downloader with config defaults applied.
func NewDownloader(cfg Config, log *slog.Logger) *Downloader {
	if cfg.YtdlpPath == "" {
		cfg.YtdlpPath = "yt-dlp"
	}
	if cfg.FfmpegPath == "" {
		cfg.FfmpegPath = "ffmpeg"
	}
	if cfg.FfprobePath == "" {
		cfg.FfprobePath = "ffprobe"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Downloader{cfg: cfg, log: log}
}

// Fetch downloads the URL's content into the request's work
// directory. Photo posts take the carousel path regardless of mode;
// metadata-only runs touch no media at all.
func (d *Downloader) Fetch(ctx context.Context, req pipeline.FetchRequest) (*pipeline.Media, error) {
	parts := ParseURL(req.URL)

	if req.Mode == pipeline.ModeMetadataOnly {
		return d.fetchMetadata(ctx, req.URL)
	}
	if req.Mode == pipeline.ModeCarousel || parts.ContentType == ContentPhoto {
		return d.fetchCarousel(ctx, req, parts)
	}
	return d.fetchVideo(ctx, req)
}

// mediaInfo is the slice of yt-dlp's JSON output the pipeline needs.
type mediaInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// fetchMetadata asks yt-dlp for the post's metadata without
// downloading any media.
func (d *Downloader) fetchMetadata(ctx context.Context, url string) (*pipeline.Media, error) {
	out, err := d.runYtdlp(ctx, "--dump-single-json", "--skip-download", "--no-playlist", toVideoURL(url))
	if err != nil {
		return nil, err
	}

	var info mediaInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return &pipeline.Media{
		Kind:        pipeline.KindMetadataOnly,
		Title:       info.Title,
		Description: info.Description,
	}, nil
}

// fetchVideo downloads the media file and, in full mode, samples
// frames from it. Frame sampling failures degrade to a video without
// frames rather than failing the fetch.
func (d *Downloader) fetchVideo(ctx context.Context, req pipeline.FetchRequest) (*pipeline.Media, error) {
	template := filepath.Join(req.WorkDir, "media.%(ext)s")
	if _, err := d.runYtdlp(ctx, "--no-playlist", "--write-info-json", "-o", template, req.URL); err != nil {
		return nil, err
	}

	mediaPath, err := findMediaFile(req.WorkDir)
	if err != nil {
		return nil, err
	}

	media := &pipeline.Media{Kind: pipeline.KindVideo, MediaPath: mediaPath}
	if info, err := readInfoJSON(req.WorkDir); err != nil {
		d.log.Debug("no media info sidecar", "error", err)
	} else {
		media.Title = info.Title
		media.Description = info.Description
	}

	if req.Mode == pipeline.ModeFull {
		frames, err := d.sampleFrames(ctx, mediaPath, req.WorkDir, req.FrameInterval, req.MaxFrames)
		if err != nil {
			d.log.Warn("frame sampling failed, continuing without frames", "error", err)
		} else {
			media.Images = frames
		}
	}
	return media, nil
}

// runYtdlp executes yt-dlp and returns its stdout.
func (d *Downloader) runYtdlp(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	d.log.Debug("running yt-dlp", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, d.cfg.YtdlpPath, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("yt-dlp failed: %w (output: %s)", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}
	return out, nil
}

// findMediaFile locates the downloaded media file in the work
// directory, skipping the metadata sidecar.
func findMediaFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "media.*"))
	if err != nil {
		return "", err
	}
	for _, match := range matches {
		if strings.HasSuffix(match, ".json") {
			continue
		}
		return match, nil
	}
	return "", fmt.Errorf("no media file found in %s", dir)
}

// readInfoJSON reads the yt-dlp metadata sidecar written next to the
// media file.
func readInfoJSON(dir string) (*mediaInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, "media.info.json"))
	if err != nil {
		return nil, err
	}
	var info mediaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse media.info.json: %w", err)
	}
	return &info, nil
}
