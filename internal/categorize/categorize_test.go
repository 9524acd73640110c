package categorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

func sampleEvent(source, id, title, url string, tags ...string) event.Event {
	start := time.Date(2026, time.May, 9, 16, 0, 0, 0, time.UTC)
	return event.Event{
		Source:   source,
		SourceID: id,
		Title:    title,
		Start:    start,
		End:      start.Add(2 * time.Hour),
		URL:      url,
		Tags:     tags,
	}
}

func TestRulesProvider(t *testing.T) {
	t.Parallel()

	provider := NewRulesProvider()
	cases := []struct {
		name string
		ev   event.Event
		want event.Category
	}{
		{
			name: "gsp url wins over title",
			ev:   sampleEvent("GSP", "1", "Volunteer Event", "https://seattle.greencitypartnerships.org/event/1"),
			want: event.CategoryParks,
		},
		{
			name: "cleanup title",
			ev:   sampleEvent("SPU", "2", "Alki Beach Cleanup", "https://example.org/2"),
			want: event.CategoryLitter,
		},
		{
			name: "restoration title",
			ev:   sampleEvent("EC", "3", "Forest Restoration at Cheasty", "https://example.org/3"),
			want: event.CategoryParks,
		},
		{
			name: "concert title",
			ev:   sampleEvent("FRE", "4", "Summer Concert at the Park", "https://example.org/4"),
			want: event.CategoryConcert,
		},
		{
			name: "litter patrol tag",
			ev:   sampleEvent("MAN", "5", "Monthly Meetup", "https://example.org/5", "Litter Patrol"),
			want: event.CategoryLitter,
		},
		{
			name: "no rule matches",
			ev:   sampleEvent("SPR", "6", "Community Gathering", "https://example.org/6"),
			want: event.CategoryOther,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result, err := provider.Categorize(context.Background(), tc.ev)
			if err != nil {
				t.Fatalf("categorize: %v", err)
			}
			if result.Category != tc.want {
				t.Errorf("category = %q, want %q", result.Category, tc.want)
			}
			if result.Rationale == "" {
				t.Error("expected a rationale")
			}
		})
	}
}

type stubCategoryStore struct {
	backlog []event.Event
	stored  []db.CategoryEnrichment
}

func (s *stubCategoryStore) ListEnrichmentBacklog(_ context.Context, kind db.EnrichmentKind, source string, limit int) ([]event.Event, error) {
	if kind != db.EnrichmentCategory {
		return nil, errors.New("unexpected kind")
	}
	out := s.backlog
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubCategoryStore) StoreCategoryEnrichment(_ context.Context, row db.CategoryEnrichment) error {
	s.stored = append(s.stored, row)
	return nil
}

type failingProvider struct {
	failKeys map[string]bool
}

func (*failingProvider) Name() string { return "flaky" }

func (p *failingProvider) Categorize(_ context.Context, ev event.Event) (Result, error) {
	if p.failKeys[ev.Key()] {
		return Result{}, errors.New("provider unavailable")
	}
	return Result{Category: event.CategoryOther, Rationale: "fallback", Confidence: 0.5}, nil
}

func TestManagerRecordsBothOutcomes(t *testing.T) {
	t.Parallel()

	store := &stubCategoryStore{backlog: []event.Event{
		sampleEvent("SPR", "a", "Work Party", "https://example.org/a"),
		sampleEvent("SPR", "b", "Work Party", "https://example.org/b"),
	}}
	registry := NewRegistry("flaky")
	if err := registry.Register(&failingProvider{failKeys: map[string]bool{"SPR:b": true}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	manager := NewManager(store, registry, zerolog.Nop())
	stats, err := manager.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Attempted != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if len(store.stored) != 2 {
		t.Fatalf("stored %d rows, want 2", len(store.stored))
	}
	success, failed := store.stored[0], store.stored[1]
	if success.Status != db.EnrichmentStatusSuccess {
		t.Errorf("first row status = %q", success.Status)
	}
	if success.Category == nil || *success.Category != string(event.CategoryOther) {
		t.Errorf("first row category = %v", success.Category)
	}
	if failed.Status != db.EnrichmentStatusFailed {
		t.Errorf("second row status = %q", failed.Status)
	}
	if failed.ErrorMessage == nil {
		t.Error("failed row is missing an error message")
	}
	if failed.Category != nil {
		t.Error("failed row should not carry a category")
	}
}

func TestManagerRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(NewRulesProvider()); err != nil {
		t.Fatalf("register: %v", err)
	}
	manager := NewManager(&stubCategoryStore{}, registry, zerolog.Nop())

	if _, err := manager.Run(context.Background(), RunOptions{Provider: "llm"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestManagerRespectsMaxItems(t *testing.T) {
	t.Parallel()

	store := &stubCategoryStore{backlog: []event.Event{
		sampleEvent("SPR", "a", "Work Party", "https://example.org/a"),
		sampleEvent("SPR", "b", "Work Party", "https://example.org/b"),
		sampleEvent("SPR", "c", "Work Party", "https://example.org/c"),
	}}
	registry := NewRegistry("")
	if err := registry.Register(NewRulesProvider()); err != nil {
		t.Fatalf("register: %v", err)
	}

	manager := NewManager(store, registry, zerolog.Nop())
	stats, err := manager.Run(context.Background(), RunOptions{MaxItems: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Attempted != 2 {
		t.Fatalf("attempted = %d, want 2", stats.Attempted)
	}
}
