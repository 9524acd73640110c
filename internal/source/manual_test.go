package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

const manualFixture = `{
	"recurring_events": [
		{
			"id": "duwamish-alive",
			"title": "Duwamish Alive Restoration",
			"recurring_pattern": "third_saturday",
			"start_time": "10:00",
			"end_time": "14:00",
			"venue": "Duwamish Waterway Park",
			"url": "https://example.org/duwamish-alive",
			"tags": ["restoration"]
		},
		{
			"id": "greenlake-cleanup",
			"title": "Green Lake Cleanup",
			"recurring_pattern": "first_sunday",
			"url": "https://example.org/greenlake-cleanup"
		}
	]
}`

func newTestExtractor(t *testing.T, fixture string, now time.Time) *ManualExtractor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manual_events.json")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	extractor, err := NewManualExtractor(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	extractor.now = func() time.Time { return now }
	return extractor
}

func TestManualExtractorExpandsOccurrences(t *testing.T) {
	t.Parallel()

	// 2026-03-02 is a Monday.
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	extractor := newTestExtractor(t, manualFixture, now)
	extractor.horizon = 60 * 24 * time.Hour

	events, err := extractor.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	byID := make(map[string]event.Event, len(events))
	for _, ev := range events {
		if ev.Source != event.SourceMAN {
			t.Errorf("unexpected source %q", ev.Source)
		}
		byID[ev.SourceID] = ev
	}

	// Third Saturday of March 2026 is the 21st.
	timed, ok := byID["duwamish-alive-2026-03-21"]
	if !ok {
		t.Fatalf("missing March occurrence, got %v", keys(byID))
	}
	if !timed.HasTimeInfo() {
		t.Error("expected time info on event with start_time")
	}
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	wantStart := time.Date(2026, time.March, 21, 10, 0, 0, 0, loc).UTC()
	if !timed.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", timed.Start, wantStart)
	}
	if got := timed.End.Sub(timed.Start); got != 4*time.Hour {
		t.Errorf("duration = %v, want 4h", got)
	}

	// First Sunday of April 2026 is the 5th. No start_time means date-only.
	dateOnly, ok := byID["greenlake-cleanup-2026-04-05"]
	if !ok {
		t.Fatalf("missing April occurrence, got %v", keys(byID))
	}
	if dateOnly.HasTimeInfo() {
		t.Error("expected date-only occurrence without start_time")
	}
	if !dateOnly.IsDateOnly() {
		t.Error("expected IsDateOnly for occurrence without start_time")
	}
}

func TestManualExtractorSkipsPastOccurrences(t *testing.T) {
	t.Parallel()

	// 2026-03-22 is the day after the third Saturday of March.
	now := time.Date(2026, time.March, 22, 8, 0, 0, 0, time.UTC)
	extractor := newTestExtractor(t, manualFixture, now)
	extractor.horizon = 40 * 24 * time.Hour

	events, err := extractor.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, ev := range events {
		if ev.SourceID == "duwamish-alive-2026-03-21" {
			t.Error("expanded an occurrence before the window start")
		}
	}
}

func TestManualExtractorRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	extractor := newTestExtractor(t, `{"recurring_events": [{"id": "x"}]}`, now)

	if _, err := extractor.Extract(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestManualExtractorOccurrencesValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	extractor := newTestExtractor(t, manualFixture, now)

	events, err := extractor.Extract(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one occurrence")
	}
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			t.Errorf("occurrence %s failed validation: %v", ev.Key(), err)
		}
	}
}

func keys(m map[string]event.Event) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
