package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

type stubDedupeStore struct {
	input     []event.Event
	published []event.CanonicalEvent
	sameAs    map[string]string
}

func (s *stubDedupeStore) ListMatchInput(_ context.Context) ([]event.Event, error) {
	return s.input, nil
}

func (s *stubDedupeStore) ReplaceCanonicalEvents(_ context.Context, canonicals []event.CanonicalEvent) error {
	s.published = canonicals
	return nil
}

func (s *stubDedupeStore) UpdateSameAs(_ context.Context, source, sourceID string, sameAs *string) error {
	if s.sameAs == nil {
		s.sameAs = make(map[string]string)
	}
	if sameAs != nil {
		s.sameAs[source+":"+sourceID] = *sameAs
	}
	return nil
}

func TestServiceRunMergesLinkedListings(t *testing.T) {
	t.Parallel()

	gspURL := "https://seattle.greencitypartnerships.org/event/41792"
	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)

	spr := dateOnlyEvent("SPR", "1", "Scotch Broom Patrol", "https://anc.apm.activecommunities.com/seattle/activity/1", day)
	sameAs := gspURL
	spr.SameAs = &sameAs
	gsp := timedEvent("GSP", "41792", "Kubota Garden Work Party", gspURL, day.Add(17*time.Hour), 3)
	unrelated := timedEvent("EC", "9", "Magnuson Park Planting", "https://example.org/ec/9", day.Add(18*time.Hour), 2)

	store := &stubDedupeStore{input: []event.Event{spr, gsp, unrelated}}
	service := NewService(store, zerolog.Nop())

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Clusters != 2 {
		t.Fatalf("clusters = %d, want 2", result.Clusters)
	}
	if result.MergedClusters != 1 {
		t.Errorf("merged clusters = %d, want 1", result.MergedClusters)
	}
	if len(store.published) != 2 {
		t.Fatalf("published %d canonicals, want 2", len(store.published))
	}

	var merged event.CanonicalEvent
	for _, c := range store.published {
		if len(c.SourceEvents) == 2 {
			merged = c
		}
	}
	if merged.CanonicalID == "" {
		t.Fatal("no merged canonical published")
	}
	// SPR has precedence, and its same_as link points at the GSP page.
	if merged.URL != gspURL {
		t.Errorf("canonical url = %q, want %q", merged.URL, gspURL)
	}
	// The date-only SPR representative borrows the GSP start time.
	if !merged.HasTimeInfo() {
		t.Error("expected the merged canonical to carry time info")
	}
}

func TestServiceRunLinksSubordinates(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.May, 9, 17, 0, 0, 0, time.UTC)
	spr := timedEvent("SPR", "1", "Golden Gardens Work Party", "https://example.org/spr/1", start, 3)
	ec := timedEvent("EC", "2", "Golden Gardens Work Party", "https://example.org/ec/2", start, 3)

	store := &stubDedupeStore{input: []event.Event{spr, ec}}
	service := NewService(store, zerolog.Nop())

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.LinkedSubordinates != 1 {
		t.Fatalf("linked = %d, want 1", result.LinkedSubordinates)
	}
	if got := store.sameAs["EC:2"]; got != "https://example.org/spr/1" {
		t.Errorf("EC:2 same_as = %q", got)
	}
	if _, repLinked := store.sameAs["SPR:1"]; repLinked {
		t.Error("representative must not point at itself")
	}
}

func TestServiceRunSkipsInvalidEvents(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.May, 9, 17, 0, 0, 0, time.UTC)
	valid := timedEvent("SPR", "1", "Work Party", "https://example.org/spr/1", start, 3)
	invalid := timedEvent("EC", "2", "", "https://example.org/ec/2", start, 3)

	store := &stubDedupeStore{input: []event.Event{valid, invalid}}
	service := NewService(store, zerolog.Nop())

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.SkippedEvents != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedEvents)
	}
	if len(store.published) != 1 {
		t.Errorf("published %d canonicals, want 1", len(store.published))
	}
}

func TestServiceRunEmptyInput(t *testing.T) {
	t.Parallel()

	store := &stubDedupeStore{}
	service := NewService(store, zerolog.Nop())

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Clusters != 0 || len(store.published) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
