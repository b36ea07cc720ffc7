package pipeline

import (
	"fmt"
	"strings"
)

// Frame sampling bounds applied when options leave them unset.
const (
	DefaultFrameInterval = 3.0
	DefaultMaxFrames     = 8
)

// Options configures one pipeline run. Build values with NewOptions
// so cross-field invariants hold before any stage consumes them.
type Options struct {
	// URL is the post to process. Required.
	URL string

	// Mode selects the content-handling strategy. Empty defaults to
	// ModeFull.
	Mode Mode

	// Categories hints the analyzer toward a closed category set.
	Categories []string

	// OutputDir receives the run result document when set.
	OutputDir string

	// WorkDir holds temporary fetch artifacts. When empty the
	// orchestrator allocates a per-run scratch directory.
	WorkDir string

	// Publish controls whether the publish stage runs. When true,
	// CollectionID must name the destination collection.
	Publish bool

	// CollectionID is the destination collection for published
	// entries.
	CollectionID string

	// FrameInterval is the seconds between sampled frames.
	FrameInterval float64

	// MaxFrames caps how many frames are sampled per video.
	MaxFrames int

	// KeepArtifacts skips scratch cleanup after the run.
	KeepArtifacts bool
}

// NewOptions normalizes opts and enforces cross-field invariants. All
// violations surface here, wrapped in ErrConfiguration, so stages
// never re-validate.
func NewOptions(opts Options) (Options, error) {
	opts.URL = strings.TrimSpace(opts.URL)
	if opts.URL == "" {
		return Options{}, fmt.Errorf("%w: url is required", ErrConfiguration)
	}
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	if !opts.Mode.Valid() {
		return Options{}, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, opts.Mode)
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	if opts.Publish && strings.TrimSpace(opts.CollectionID) == "" {
		return Options{}, fmt.Errorf("%w: publishing requires a collection id", ErrConfiguration)
	}
	return opts, nil
}
