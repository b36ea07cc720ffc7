package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackzampolin/wandr/internal/pipeline"
)

// sampleFrames extracts one still per sample timestamp from the
// video. Individual frame failures are tolerated; the video may be
// shorter than the probe suggests near its end.
func (d *Downloader) sampleFrames(ctx context.Context, videoPath, workDir string, interval float64, maxFrames int) ([]pipeline.ImageRef, error) {
	duration, err := d.probeDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	var frames []pipeline.ImageRef
	for _, ts := range sampleTimestamps(duration, interval, maxFrames) {
		out := filepath.Join(workDir, fmt.Sprintf("frame_%ds.jpg", ts))
		cmd := exec.CommandContext(ctx, d.cfg.FfmpegPath,
			"-ss", strconv.Itoa(ts),
			"-i", videoPath,
			"-frames:v", "1",
			"-q:v", "2",
			"-loglevel", "error",
			"-y",
			out,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			d.log.Warn("frame extraction failed", "timestamp", ts, "error", err, "output", strings.TrimSpace(string(output)))
			continue
		}
		if _, err := os.Stat(out); err != nil {
			continue
		}
		frames = append(frames, pipeline.ImageRef{
			Source: fmt.Sprintf("frame_%ds", ts),
			Path:   out,
		})
	}

	d.log.Debug("frames sampled", "count", len(frames), "duration", duration)
	return frames, nil
}

// probeDuration measures the video's duration in seconds via ffprobe.
func (d *Downloader) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, d.cfg.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return duration, nil
}

// sampleTimestamps returns frame offsets in seconds: every interval
// from zero through the duration, capped at maxFrames.
func sampleTimestamps(duration, interval float64, maxFrames int) []int {
	step := int(interval)
	if step < 1 {
		step = 1
	}

	var stamps []int
	for ts := 0; ts <= int(duration); ts += step {
		stamps = append(stamps, ts)
		if maxFrames > 0 && len(stamps) >= maxFrames {
			break
		}
	}
	return stamps
}
