package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

type stubAPIStore struct {
	canonicals  []event.CanonicalEvent
	listedAfter time.Time
}

func (s *stubAPIStore) ListCanonicalEvents(_ context.Context, after time.Time) ([]event.CanonicalEvent, error) {
	s.listedAfter = after
	if after.IsZero() {
		return s.canonicals, nil
	}
	var out []event.CanonicalEvent
	for _, c := range s.canonicals {
		if c.End.After(after) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubAPIStore) CountSourceEvents(_ context.Context, _ string) (int64, error) {
	return 12, nil
}

func (s *stubAPIStore) CountCanonicalEvents(_ context.Context) (int64, error) {
	return int64(len(s.canonicals)), nil
}

func (s *stubAPIStore) QueryEnrichmentProgress(_ context.Context, kind db.EnrichmentKind, source string) (db.EnrichmentProgress, error) {
	return db.EnrichmentProgress{Kind: kind, Source: source, Enriched: 8, Failed: 1, Total: 12}, nil
}

func (s *stubAPIStore) QueryStageFreshness(_ context.Context) ([]db.StageFreshness, error) {
	return []db.StageFreshness{{Stage: "fetch", Source: "MAN", RunAt: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

func (s *stubAPIStore) QueryRunSummaries(_ context.Context, _ int) ([]db.RunSummary, error) {
	return []db.RunSummary{{Stage: "fetch", Source: "MAN", Runs: 3, Successes: 3}}, nil
}

func newTestServer(t *testing.T, store Store, now time.Time) http.Handler {
	t.Helper()

	server := NewServer(store, zerolog.Nop(), Options{})
	server.now = func() time.Time { return now }
	handler, err := server.Handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func doRequest(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, jsendResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var body jsendResponse
	if rec.Header().Get("Content-Type") != "" && rec.Code != http.StatusNotFound {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s response: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec, body
}

func testCanonicals(now time.Time) []event.CanonicalEvent {
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	return []event.CanonicalEvent{
		{
			CanonicalID:  "11111111-1111-1111-1111-111111111111",
			Title:        "Past Work Party",
			Start:        past,
			End:          past.Add(2 * time.Hour),
			URL:          "https://example.org/past",
			SourceEvents: []string{"SPR:1"},
		},
		{
			CanonicalID:  "22222222-2222-2222-2222-222222222222",
			Title:        "Upcoming Work Party",
			Start:        future,
			End:          future.Add(2 * time.Hour),
			URL:          "https://example.org/upcoming",
			SourceEvents: []string{"GSP:2", "SPR:3"},
		},
	}
}

func TestHandleEventsUpcomingOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	store := &stubAPIStore{canonicals: testCanonicals(now)}
	handler := newTestServer(t, store, now)

	rec, body := doRequest(t, handler, "/api/v1/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Status != "success" {
		t.Fatalf("jsend status = %q", body.Status)
	}

	data := body.Data.(map[string]any)
	if count := data["count"].(float64); count != 1 {
		t.Errorf("count = %v, want 1", count)
	}
	items := data["items"].([]any)
	first := items[0].(map[string]any)
	if first["title"] != "Upcoming Work Party" {
		t.Errorf("title = %v", first["title"])
	}
	if first["source_count"].(float64) != 2 {
		t.Errorf("source_count = %v", first["source_count"])
	}
}

func TestHandleEventsAll(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	store := &stubAPIStore{canonicals: testCanonicals(now)}
	handler := newTestServer(t, store, now)

	rec, body := doRequest(t, handler, "/api/v1/events?all=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := body.Data.(map[string]any)
	if count := data["count"].(float64); count != 2 {
		t.Errorf("count = %v, want 2", count)
	}
	if !store.listedAfter.IsZero() {
		t.Errorf("listedAfter = %v, want zero time", store.listedAfter)
	}
}

func TestHandleStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	handler := newTestServer(t, &stubAPIStore{}, now)

	rec, body := doRequest(t, handler, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := body.Data.(map[string]any)
	if data["source_events"].(float64) != 12 {
		t.Errorf("source_events = %v", data["source_events"])
	}
	if len(data["freshness"].([]any)) != 1 {
		t.Errorf("freshness = %v", data["freshness"])
	}
}

func TestHandleStatsRejectsBadDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	handler := newTestServer(t, &stubAPIStore{}, now)

	rec, body := doRequest(t, handler, "/api/v1/stats?days=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body.Status != "fail" {
		t.Errorf("jsend status = %q", body.Status)
	}
}

func TestHandleEnrichment(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	handler := newTestServer(t, &stubAPIStore{}, now)

	rec, body := doRequest(t, handler, "/api/v1/enrichment?source=GSP")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	items := body.Data.(map[string]any)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d, want one per enrichment stream", len(items))
	}
	first := items[0].(map[string]any)
	if first["kind"] != string(db.EnrichmentDetailPage) {
		t.Errorf("first kind = %v", first["kind"])
	}
	if first["source"] != "GSP" {
		t.Errorf("first source = %v", first["source"])
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	handler := newTestServer(t, &stubAPIStore{}, now)

	rec, body := doRequest(t, handler, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Data.(map[string]any)["service"] != "volunteer-events" {
		t.Errorf("service = %v", body.Data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	store := &stubAPIStore{canonicals: testCanonicals(now)}
	handler := newTestServer(t, store, now)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); !strings.Contains(got, "volunteer_canonical_events_total") {
		t.Errorf("metrics output is missing canonical events gauge:\n%s", got)
	}
}
