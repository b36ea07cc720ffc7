package pipeline

import "strings"

// Mode selects which content-handling strategy a run uses.
type Mode string

const (
	// ModeFull fetches media, transcribes the audio track, and reads
	// text from sampled frames.
	ModeFull Mode = "full"

	// ModeMetadataOnly fetches the post title and description and
	// skips transcription and frame text entirely.
	ModeMetadataOnly Mode = "metadata-only"

	// ModeAudioOnly fetches media and transcribes the audio track.
	ModeAudioOnly Mode = "audio-only"

	// ModeCarousel fetches a photo carousel and reads text from every
	// image instead of sampled video frames.
	ModeCarousel Mode = "carousel"
)

// modeTags maps normalized tag values to non-default modes. Tags
// absent from this table resolve to ModeFull.
var modeTags = map[string]Mode{
	"metadata-only": ModeMetadataOnly,
	"audio-only":    ModeAudioOnly,
	"carousel":      ModeCarousel,
}

// ResolveMode maps a free-text tag to a Mode. Matching is
// case-insensitive and ignores surrounding whitespace. The empty tag
// and any unrecognized tag resolve to ModeFull, so the function is
// total over all string inputs.
func ResolveMode(tag string) Mode {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if normalized == "" {
		return ModeFull
	}
	if mode, ok := modeTags[normalized]; ok {
		return mode
	}
	return ModeFull
}

// ResolveModeFromTags resolves the first tag that maps to a
// non-default mode. When no tag does, it returns ModeFull.
func ResolveModeFromTags(tags []string) Mode {
	for _, tag := range tags {
		if mode := ResolveMode(tag); mode != ModeFull {
			return mode
		}
	}
	return ModeFull
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeFull, ModeMetadataOnly, ModeAudioOnly, ModeCarousel:
		return true
	}
	return false
}
