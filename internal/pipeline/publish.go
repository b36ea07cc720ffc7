package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// PublishCommand writes a bundle's places to the destination
// collection, suppressing duplicates by exact title match.
type PublishCommand struct {
	store RecordStore
	log   *slog.Logger

	// nameLocks serializes find-or-create per place name. Two
	// concurrent runs must not both miss the lookup and create twin
	// records for the same name.
	mu        sync.Mutex
	nameLocks map[string]*sync.Mutex
}

// NewPublishCommand wires the publish stage.
func NewPublishCommand(store RecordStore, log *slog.Logger) *PublishCommand {
	if log == nil {
		log = slog.Default()
	}
	return &PublishCommand{store: store, log: log, nameLocks: make(map[string]*sync.Mutex)}
}

// Run publishes every place in the bundle. Per-place failures are
// logged and recorded as warnings without aborting the remaining
// places; the stage fails only when the store is unreachable for the
// whole bundle. Publishing an empty bundle succeeds with zero counts.
func (p *PublishCommand) Run(ctx context.Context, bundle *Bundle, opts Options) *PublishResult {
	res := &PublishResult{}
	if p.store == nil {
		res.StageResult = stageFailed(fmt.Errorf("%w: no record store configured", ErrPublish))
		return res
	}
	if bundle == nil || len(bundle.Places) == 0 {
		res.StageResult = succeeded()
		return res
	}

	log := p.log.With("collection", opts.CollectionID, "url", bundle.URL)
	log.Info("publishing places", "count", len(bundle.Places))

	var warnings []string
	storeErrors := 0
	for _, place := range bundle.Places {
		res.Attempted++
		id, duplicate, err := p.publishPlace(ctx, opts.CollectionID, place, bundle.URL)
		if err != nil {
			storeErrors++
			log.Warn("place publish failed", "place", place.Name, "error", err)
			warnings = append(warnings, err.Error())
			continue
		}
		res.PageIDs = append(res.PageIDs, id)
		if duplicate {
			res.Duplicates++
			log.Debug("duplicate title, keeping existing record", "place", place.Name, "page_id", id)
		} else {
			log.Debug("created record", "place", place.Name, "page_id", id)
		}
	}
	res.NewEntries = len(res.PageIDs) - res.Duplicates

	if storeErrors == res.Attempted {
		res.StageResult = stageFailed(fmt.Errorf("%w: no place reached the store", ErrPublish))
		res.Warnings = warnings
		return res
	}

	// Per-place failures ride along as warnings; the stage still
	// reports success provided the store was reachable at all.
	res.StageResult = StageResult{Status: StatusSuccess, Warnings: warnings}
	log.Info("publish finished", "attempted", res.Attempted, "new_entries", res.NewEntries, "duplicates", res.Duplicates)
	return res
}

// publishPlace runs the find-or-create for a single place under its
// name lock. It returns the record id and whether an existing record
// was reused.
func (p *PublishCommand) publishPlace(ctx context.Context, collectionID string, place Place, sourceURL string) (string, bool, error) {
	lock := p.nameLock(place.Name)
	lock.Lock()
	defer lock.Unlock()

	existing, err := p.store.FindByTitle(ctx, collectionID, place.Name)
	if err != nil {
		return "", false, fmt.Errorf("find %q: %w", place.Name, err)
	}
	if existing != nil {
		return existing.ID, true, nil
	}

	created, err := p.store.CreateEntry(ctx, collectionID, place, sourceURL)
	if err != nil {
		return "", false, fmt.Errorf("create %q: %w", place.Name, err)
	}
	return created.ID, false, nil
}

func (p *PublishCommand) nameLock(name string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.nameLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		p.nameLocks[name] = lock
	}
	return lock
}
