package dedupe

import (
	"testing"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

func testSelector() *CanonicalSelector {
	n := 0
	return &CanonicalSelector{newID: func() string {
		n++
		return string(rune('a'-1+n)) + "0000000-0000-0000-0000-000000000000"
	}}
}

func TestSelectPrecedence(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	gsp := dateOnlyEvent("GSP", "2", "GSP Title", "https://seattle.greencitypartnerships.org/event/2", day)
	spr := dateOnlyEvent("SPR", "1", "SPR Title", "https://example.org/spr/1", day)
	man := dateOnlyEvent("MAN", "3", "Manual Title", "https://example.org/man/3", day)

	byKey := map[string]event.Event{
		gsp.Key(): gsp, spr.Key(): spr, man.Key(): man,
	}
	cluster := Cluster{Members: []string{"GSP:2", "MAN:3", "SPR:1"}}

	canonical, err := testSelector().Select(cluster, byKey)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if canonical.Title != "SPR Title" {
		t.Errorf("title = %q, want the SPR member to win", canonical.Title)
	}
	if canonical.Provenance["representative"] != "SPR:1" {
		t.Errorf("representative = %q", canonical.Provenance["representative"])
	}
	if len(canonical.SourceEvents) != 3 {
		t.Errorf("source events = %v", canonical.SourceEvents)
	}
}

func TestSelectSameAsSwapsURL(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	spr := dateOnlyEvent("SPR", "1", "Scotch Broom Patrol", "https://anc.apm.activecommunities.com/seattle/activity/1", day)
	gspURL := "https://seattle.greencitypartnerships.org/event/41792"
	spr.SameAs = &gspURL

	cluster := Cluster{Members: []string{"SPR:1"}}
	canonical, err := testSelector().Select(cluster, map[string]event.Event{"SPR:1": spr})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if canonical.URL != gspURL {
		t.Errorf("url = %q, want the same_as target %q", canonical.URL, gspURL)
	}
}

func TestSelectBorrowsTimeFromSubordinate(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	spr := dateOnlyEvent("SPR", "1", "Work Party", "https://example.org/spr/1", day)
	start := day.Add(17 * time.Hour)
	gsp := timedEvent("GSP", "2", "Work Party", "https://example.org/gsp/2", start, 3)

	cluster := Cluster{Members: []string{"GSP:2", "SPR:1"}}
	byKey := map[string]event.Event{"SPR:1": spr, "GSP:2": gsp}

	canonical, err := testSelector().Select(cluster, byKey)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !canonical.HasTimeInfo() {
		t.Fatal("expected time info borrowed from the GSP member")
	}
	if !canonical.Start.Equal(start) {
		t.Errorf("start = %v, want %v", canonical.Start, start)
	}
	if canonical.Provenance["time"] != "GSP:2" {
		t.Errorf("time provenance = %q", canonical.Provenance["time"])
	}
}

func TestSelectKeepsDateWhenTimedMemberIsOnAnotherDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	spr := dateOnlyEvent("SPR", "1", "Work Party", "https://example.org/spr/1", day)
	start := day.Add(24*time.Hour + 17*time.Hour)
	gsp := timedEvent("GSP", "2", "Work Party", "https://example.org/gsp/2", start, 3)

	cluster := Cluster{Members: []string{"GSP:2", "SPR:1"}}
	byKey := map[string]event.Event{"SPR:1": spr, "GSP:2": gsp}

	canonical, err := testSelector().Select(cluster, byKey)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if canonical.HasTimeInfo() {
		t.Fatalf("start = %v, want the representative to stay date-only", canonical.Start)
	}
	if !canonical.Start.Equal(day) {
		t.Errorf("start = %v, want the representative date %v", canonical.Start, day)
	}
	if _, ok := canonical.Provenance["time"]; ok {
		t.Errorf("time provenance = %q, want none", canonical.Provenance["time"])
	}
}

func TestSelectFillsGapsWithProvenance(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	spr := dateOnlyEvent("SPR", "1", "Work Party", "https://example.org/spr/1", day)
	gsp := dateOnlyEvent("GSP", "2", "Work Party", "https://example.org/gsp/2", day)
	venue := "Kubota Garden"
	addr := "9817 55th Ave S"
	gsp.Venue = &venue
	gsp.Address = &addr

	cluster := Cluster{Members: []string{"GSP:2", "SPR:1"}}
	byKey := map[string]event.Event{"SPR:1": spr, "GSP:2": gsp}

	canonical, err := testSelector().Select(cluster, byKey)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if canonical.Venue == nil || *canonical.Venue != venue {
		t.Errorf("venue = %v", canonical.Venue)
	}
	if canonical.Provenance["venue"] != "GSP:2" {
		t.Errorf("venue provenance = %q", canonical.Provenance["venue"])
	}
	if canonical.Provenance["address"] != "GSP:2" {
		t.Errorf("address provenance = %q", canonical.Provenance["address"])
	}
}

func TestSelectUnknownSourceSortsLast(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC)
	known := dateOnlyEvent("MAN", "1", "Manual Title", "https://example.org/man/1", day)
	unknown := dateOnlyEvent("XYZ", "2", "Unknown Title", "https://example.org/xyz/2", day)

	cluster := Cluster{Members: []string{"MAN:1", "XYZ:2"}}
	byKey := map[string]event.Event{"MAN:1": known, "XYZ:2": unknown}

	canonical, err := testSelector().Select(cluster, byKey)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if canonical.Title != "Manual Title" {
		t.Errorf("title = %q, want the known source to win", canonical.Title)
	}
}
