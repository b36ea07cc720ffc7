package pipeline

import (
	"context"
	"time"
)

// FetchRequest describes one media fetch.
type FetchRequest struct {
	URL           string
	Mode          Mode
	WorkDir       string
	FrameInterval float64
	MaxFrames     int
}

// ImageRef points at one still image on local disk, labeled by where
// it came from ("frame_3s", "image_1").
type ImageRef struct {
	Source string
	Path   string
}

// Media is what the fetcher hands back to the content stage. Paths
// reference files under the request's WorkDir.
type Media struct {
	Kind        ContentKind
	Title       string
	Description string

	// MediaPath is the downloaded media file. Empty for carousel and
	// metadata-only fetches.
	MediaPath string

	// Images holds sampled video frames or carousel stills.
	Images []ImageRef
}

// MediaFetcher downloads content for a URL according to the mode.
type MediaFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*Media, error)
}

// Transcriber converts speech in a local media file to text. An empty
// transcript with a nil error means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// TextReader pulls visible text out of still images. Per-image
// failures are tolerated and their fragments omitted; the call
// returns an error only when no image could be processed.
type TextReader interface {
	ReadText(ctx context.Context, images []ImageRef) ([]SourceText, error)
}

// Analyzer turns combined content text into candidate places. An
// empty candidate list is a normal outcome for noisy content.
type Analyzer interface {
	Analyze(ctx context.Context, text string, hints []string) ([]Place, error)
}

// Enrichment is the geographic lookup result for one place name.
type Enrichment struct {
	HasValidLocation bool
	PlaceID          string
	FormattedAddress string
	Website          string
	Hours            string
	MapsLink         string
}

// Enricher resolves a place name against a geographic index.
type Enricher interface {
	Enrich(ctx context.Context, name, locationHint string) (*Enrichment, error)
}

// Record identifies one entry in the destination collection.
type Record struct {
	ID  string
	URL string
}

// RecordStore persists place entries in the destination collection.
// Dedup policy lives in the publish stage; the store only answers
// exact-title lookups and creates entries in its native schema.
type RecordStore interface {
	// FindByTitle returns the entry whose title exactly equals title,
	// or nil when no entry matches.
	FindByTitle(ctx context.Context, collectionID, title string) (*Record, error)

	// CreateEntry writes a new entry for the place.
	CreateEntry(ctx context.Context, collectionID string, place Place, sourceURL string) (*Record, error)
}

// WorkItem is one queued URL awaiting batch processing.
type WorkItem struct {
	ID      string
	URL     string
	ModeTag string
}

// ItemStatus is the terminal state written back to the work queue.
type ItemStatus string

const (
	ItemCompleted ItemStatus = "Completed"
	ItemFailed    ItemStatus = "Failed"
)

// PendingFilter narrows which queued items a batch pass picks up.
type PendingFilter struct {
	// Since keeps only items created at or after the given instant.
	// Nil means no date restriction.
	Since *time.Time
}

// WorkQueue lists pending work items and records their terminal
// status. Items already consumed must not be listed again.
type WorkQueue interface {
	ListPending(ctx context.Context, queueID string, filter PendingFilter) ([]WorkItem, error)
	UpdateStatus(ctx context.Context, itemID string, status ItemStatus) error
}
