package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ExtractCommand runs the place extraction stage: analyze combined
// text into candidate places, then enrich each candidate and keep
// only those with a resolvable physical location.
type ExtractCommand struct {
	analyzer Analyzer
	enricher Enricher
	log      *slog.Logger
}

// NewExtractCommand wires the extraction stage.
func NewExtractCommand(analyzer Analyzer, enricher Enricher, log *slog.Logger) *ExtractCommand {
	if log == nil {
		log = slog.Default()
	}
	return &ExtractCommand{analyzer: analyzer, enricher: enricher, log: log}
}

// Run analyzes the content stage's combined text and assembles the
// enriched bundle. Candidates without a usable name or a resolvable
// location are dropped silently; an empty bundle is a legitimate
// success, not a failure.
func (e *ExtractCommand) Run(ctx context.Context, content *ContentResult, opts Options) *ExtractResult {
	res := &ExtractResult{}
	log := e.log.With("url", content.URL)

	if e.analyzer == nil {
		res.StageResult = stageFailed(fmt.Errorf("%w: no analyzer configured", ErrLocationExtraction))
		return res
	}
	if e.enricher == nil {
		res.StageResult = stageFailed(fmt.Errorf("%w: no place enricher configured", ErrLocationExtraction))
		return res
	}

	if strings.TrimSpace(content.CombinedText) == "" {
		log.Info("no content text to analyze")
		res.Bundle = &Bundle{URL: content.URL, Kind: content.Kind}
		res.StageResult = succeeded()
		res.Meta = map[string]any{"candidates": 0, "kept": 0}
		return res
	}

	log.Info("extracting places", "combined_chars", len(content.CombinedText))
	candidates, err := e.analyzer.Analyze(ctx, content.CombinedText, opts.Categories)
	if err != nil {
		res.StageResult = stageFailed(fmt.Errorf("%w: analyze: %v", ErrLocationExtraction, err))
		return res
	}

	kept := make([]Place, 0, len(candidates))
	for _, candidate := range candidates {
		place, ok := e.enrichCandidate(ctx, log, candidate)
		if !ok {
			continue
		}
		kept = append(kept, place)
	}

	res.Bundle = &Bundle{URL: content.URL, Kind: content.Kind, Places: kept}
	res.StageResult = succeeded()
	res.Meta = map[string]any{"candidates": len(candidates), "kept": len(kept)}
	log.Info("places extracted", "candidates", len(candidates), "kept", len(kept))
	return res
}

// enrichCandidate resolves one candidate against the geographic index
// and merges the lookup result in. It returns false when the
// candidate should be dropped, which is an expected outcome for noisy
// content rather than an error.
func (e *ExtractCommand) enrichCandidate(ctx context.Context, log *slog.Logger, candidate Place) (Place, bool) {
	name := strings.TrimSpace(candidate.Name)
	if name == "" {
		log.Debug("dropping unnamed candidate")
		return Place{}, false
	}
	candidate.Name = name

	enriched, err := e.enricher.Enrich(ctx, name, candidate.LocationHint())
	if err != nil {
		log.Warn("enrichment failed, dropping candidate", "place", name, "error", err)
		return Place{}, false
	}
	if !enriched.HasValidLocation {
		log.Debug("no resolvable location, dropping candidate", "place", name)
		return Place{}, false
	}
	if enriched.MapsLink == "" {
		log.Debug("no maps link, dropping candidate", "place", name)
		return Place{}, false
	}

	// Lookup data wins for address and website; hours only fill a
	// gap the analyzer left.
	if enriched.FormattedAddress != "" {
		candidate.Address = enriched.FormattedAddress
	}
	if enriched.Website != "" {
		candidate.Website = enriched.Website
	}
	if candidate.Hours == "" {
		candidate.Hours = enriched.Hours
	}
	candidate.MapsLink = enriched.MapsLink
	candidate.Visited = false
	return candidate, true
}
