package dedupe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// Store is the persistence surface a dedupe run needs.
type Store interface {
	ListMatchInput(ctx context.Context) ([]event.Event, error)
	ReplaceCanonicalEvents(ctx context.Context, canonicals []event.CanonicalEvent) error
	UpdateSameAs(ctx context.Context, source, sourceID string, sameAs *string) error
}

// Result reports one dedupe run.
type Result struct {
	InputEvents        int `json:"input_events"`
	SkippedEvents      int `json:"skipped_events"`
	CandidatePairs     int `json:"candidate_pairs"`
	MatchedPairs       int `json:"matched_pairs"`
	Clusters           int `json:"clusters"`
	MergedClusters     int `json:"merged_clusters"`
	LinkedSubordinates int `json:"linked_subordinates"`
}

// Service runs the full dedupe pass: score, cluster, select, publish.
type Service struct {
	store    Store
	engine   *Engine
	selector *CanonicalSelector
	logger   zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		engine:   NewEngine(),
		selector: NewCanonicalSelector(),
		logger:   logger,
	}
}

// Run recomputes the canonical set from the current source events. Invalid
// events are skipped with a logged reason rather than failing the run; every
// valid event lands in exactly one cluster.
func (s *Service) Run(ctx context.Context) (Result, error) {
	input, err := s.store.ListMatchInput(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load match input: %w", err)
	}

	result := Result{InputEvents: len(input)}
	events := make([]event.Event, 0, len(input))
	byKey := make(map[string]event.Event, len(input))
	for _, ev := range input {
		if err := ev.Validate(); err != nil {
			result.SkippedEvents++
			s.logger.Warn().Err(err).Str("event", ev.Key()).Msg("skipping invalid event")
			continue
		}
		events = append(events, ev)
		byKey[ev.Key()] = ev
	}

	pairs := s.engine.ScorePairs(events)
	result.CandidatePairs = len(pairs)
	for _, pair := range pairs {
		if pair.IsMatch() {
			result.MatchedPairs++
			s.logger.Debug().
				Str("left", pair.Left).
				Str("right", pair.Right).
				Float64("probability", pair.Probability).
				Msg("matched pair")
		}
	}

	keys := make([]string, 0, len(events))
	for _, ev := range events {
		keys = append(keys, ev.Key())
	}
	clusters := BuildClusters(keys, pairs)
	result.Clusters = len(clusters)

	canonicals := make([]event.CanonicalEvent, 0, len(clusters))
	for _, cluster := range clusters {
		canonical, err := s.selector.Select(cluster, byKey)
		if err != nil {
			return result, fmt.Errorf("select canonical: %w", err)
		}
		canonicals = append(canonicals, canonical)
		if len(cluster.Members) > 1 {
			result.MergedClusters++
		}
	}

	if err := s.store.ReplaceCanonicalEvents(ctx, canonicals); err != nil {
		return result, fmt.Errorf("replace canonical events: %w", err)
	}

	linked, err := s.linkSubordinates(ctx, canonicals, byKey)
	if err != nil {
		return result, err
	}
	result.LinkedSubordinates = linked

	s.logger.Info().
		Int("input", result.InputEvents).
		Int("skipped", result.SkippedEvents).
		Int("matched_pairs", result.MatchedPairs).
		Int("clusters", result.Clusters).
		Int("merged", result.MergedClusters).
		Msg("dedupe run complete")

	return result, nil
}

// linkSubordinates writes the canonical URL onto each non-representative
// cluster member's same_as column, so source rows point at the record that
// represents them. A member whose same_as already equals the canonical URL is
// left alone, as is a member whose own URL is the canonical URL.
func (s *Service) linkSubordinates(ctx context.Context, canonicals []event.CanonicalEvent, byKey map[string]event.Event) (int, error) {
	linked := 0
	for _, canonical := range canonicals {
		if len(canonical.SourceEvents) < 2 {
			continue
		}
		rep := canonical.Provenance["representative"]
		for _, key := range canonical.SourceEvents {
			if key == rep {
				continue
			}
			member := byKey[key]
			if member.URL == canonical.URL {
				continue
			}
			if member.SameAs != nil && *member.SameAs == canonical.URL {
				continue
			}
			source, sourceID, err := event.SplitKey(key)
			if err != nil {
				return linked, fmt.Errorf("link subordinate %s: %w", key, err)
			}
			url := canonical.URL
			if err := s.store.UpdateSameAs(ctx, source, sourceID, &url); err != nil {
				return linked, fmt.Errorf("link subordinate %s: %w", key, err)
			}
			linked++
		}
	}
	return linked, nil
}
