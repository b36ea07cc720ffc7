package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher implements MediaFetcher for testing.
type fakeFetcher struct {
	media *Media
	err   error
	got   FetchRequest
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, req FetchRequest) (*Media, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.media, nil
}

// fakeTranscriber implements Transcriber for testing.
type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	f.calls++
	return f.text, f.err
}

// fakeReader implements TextReader for testing.
type fakeReader struct {
	fragments []SourceText
	err       error
	got       []ImageRef
	calls     int
}

func (f *fakeReader) ReadText(ctx context.Context, images []ImageRef) ([]SourceText, error) {
	f.calls++
	f.got = images
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments, nil
}

// fakeAnalyzer implements Analyzer for testing.
type fakeAnalyzer struct {
	places   []Place
	err      error
	gotText  string
	gotHints []string
	calls    int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string, hints []string) ([]Place, error) {
	f.calls++
	f.gotText = text
	f.gotHints = hints
	if f.err != nil {
		return nil, f.err
	}
	return f.places, nil
}

// fakeEnricher implements Enricher with per-name responses.
type fakeEnricher struct {
	results map[string]*Enrichment
	errs    map[string]error
	hints   map[string]string
}

func (f *fakeEnricher) Enrich(ctx context.Context, name, locationHint string) (*Enrichment, error) {
	if f.hints == nil {
		f.hints = make(map[string]string)
	}
	f.hints[name] = locationHint
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	if enr, ok := f.results[name]; ok {
		return enr, nil
	}
	return &Enrichment{}, nil
}

// fakeStore implements RecordStore with an in-memory title index.
type fakeStore struct {
	mu           sync.Mutex
	existing     map[string]*Record
	findErr      error
	createErr    error
	createErrFor map[string]error
	created      []Place
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: make(map[string]*Record)}
}

func (f *fakeStore) FindByTitle(ctx context.Context, collectionID, title string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if rec, ok := f.existing[title]; ok {
		return rec, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateEntry(ctx context.Context, collectionID string, place Place, sourceURL string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if err := f.createErrFor[place.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	rec := &Record{ID: fmt.Sprintf("rec-%d", f.nextID), URL: sourceURL}
	f.existing[place.Name] = rec
	f.created = append(f.created, place)
	return rec, nil
}

func (f *fakeStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeQueue implements WorkQueue for testing.
type fakeQueue struct {
	mu       sync.Mutex
	items    []WorkItem
	listErr  error
	statuses map[string]ItemStatus
}

func newFakeQueue(items ...WorkItem) *fakeQueue {
	return &fakeQueue{items: items, statuses: make(map[string]ItemStatus)}
}

func (f *fakeQueue) ListPending(ctx context.Context, queueID string, filter PendingFilter) ([]WorkItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeQueue) UpdateStatus(ctx context.Context, itemID string, status ItemStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[itemID] = status
	return nil
}

func (f *fakeQueue) statusOf(itemID string) (ItemStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[itemID]
	return s, ok
}

// Stage fakes for orchestrator tests.

type fakeContentStage struct {
	res   *ContentResult
	calls int
	got   Options
}

func (f *fakeContentStage) Run(ctx context.Context, opts Options) *ContentResult {
	f.calls++
	f.got = opts
	return f.res
}

type fakeExtractStage struct {
	res        *ExtractResult
	calls      int
	gotContent *ContentResult
}

func (f *fakeExtractStage) Run(ctx context.Context, content *ContentResult, opts Options) *ExtractResult {
	f.calls++
	f.gotContent = content
	return f.res
}

type fakePublishStage struct {
	res       *PublishResult
	calls     int
	gotBundle *Bundle
}

func (f *fakePublishStage) Run(ctx context.Context, bundle *Bundle, opts Options) *PublishResult {
	f.calls++
	f.gotBundle = bundle
	return f.res
}

// fakeRunner implements Runner with a per-call hook so batch tests
// can vary outcomes by URL or panic on purpose.
type fakeRunner struct {
	fn func(ctx context.Context, opts Options) (*RunResult, error)

	mu      sync.Mutex
	gotOpts []Options
}

func (f *fakeRunner) Run(ctx context.Context, opts Options) (*RunResult, error) {
	f.mu.Lock()
	f.gotOpts = append(f.gotOpts, opts)
	f.mu.Unlock()
	return f.fn(ctx, opts)
}

// successResult builds a fully delivered run result.
func successResult(url string) *RunResult {
	return &RunResult{
		URL:      url,
		State:    StateDone,
		Content:  &ContentResult{StageResult: StageResult{Status: StatusSuccess}, URL: url},
		Location: &ExtractResult{StageResult: StageResult{Status: StatusSuccess}, Bundle: &Bundle{URL: url}},
		Publish:  &PublishResult{StageResult: StageResult{Status: StatusSuccess}},
	}
}
