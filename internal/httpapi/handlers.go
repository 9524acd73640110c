package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

type eventItem struct {
	CanonicalID  string    `json:"canonical_id"`
	Title        string    `json:"title"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	HasTimeInfo  bool      `json:"has_time_info"`
	Venue        *string   `json:"venue,omitempty"`
	Address      *string   `json:"address,omitempty"`
	URL          string    `json:"url"`
	Cost         *string   `json:"cost,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	SourceCount  int       `json:"source_count"`
	SourceEvents []string  `json:"source_events"`
}

func toEventItem(c event.CanonicalEvent) eventItem {
	return eventItem{
		CanonicalID:  c.CanonicalID,
		Title:        c.Title,
		StartAt:      c.Start,
		EndAt:        c.End,
		HasTimeInfo:  c.HasTimeInfo(),
		Venue:        c.Venue,
		Address:      c.Address,
		URL:          c.URL,
		Cost:         c.Cost,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		Tags:         c.Tags,
		SourceCount:  len(c.SourceEvents),
		SourceEvents: c.SourceEvents,
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "volunteer-events",
		"time":    s.now().UTC(),
	})
}

// handleEvents lists the published canonical events. Upcoming events only by
// default; ?all=true includes past ones.
func (s *Server) handleEvents(c echo.Context) error {
	after := s.now().UTC()
	if all, _ := strconv.ParseBool(c.QueryParam("all")); all {
		after = time.Time{}
	}

	canonicals, err := s.store.ListCanonicalEvents(c.Request().Context(), after)
	if err != nil {
		s.logger.Error().Err(err).Msg("list canonical events failed")
		return internalError(c, "Failed to load events")
	}

	items := make([]eventItem, 0, len(canonicals))
	for _, canonical := range canonicals {
		items = append(items, toEventItem(canonical))
	}
	return success(c, map[string]any{
		"items": items,
		"count": len(items),
	})
}

type statsResponse struct {
	SourceEvents    int64               `json:"source_events"`
	CanonicalEvents int64               `json:"canonical_events"`
	Freshness       []db.StageFreshness `json:"freshness"`
	Runs            []db.RunSummary     `json:"runs"`
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return fail(c, http.StatusBadRequest, "days must be a positive integer", nil)
		}
		days = parsed
	}

	var stats statsResponse
	var err error
	if stats.SourceEvents, err = s.store.CountSourceEvents(ctx, ""); err != nil {
		s.logger.Error().Err(err).Msg("count source events failed")
		return internalError(c, "Failed to load stats")
	}
	if stats.CanonicalEvents, err = s.store.CountCanonicalEvents(ctx); err != nil {
		s.logger.Error().Err(err).Msg("count canonical events failed")
		return internalError(c, "Failed to load stats")
	}
	if stats.Freshness, err = s.store.QueryStageFreshness(ctx); err != nil {
		s.logger.Error().Err(err).Msg("query stage freshness failed")
		return internalError(c, "Failed to load stats")
	}
	if stats.Runs, err = s.store.QueryRunSummaries(ctx, days); err != nil {
		s.logger.Error().Err(err).Msg("query run summaries failed")
		return internalError(c, "Failed to load stats")
	}

	return success(c, stats)
}

// handleEnrichment reports backlog progress for both enrichment streams,
// optionally filtered to one source.
func (s *Server) handleEnrichment(c echo.Context) error {
	source := c.QueryParam("source")

	items := make([]db.EnrichmentProgress, 0, len(enrichmentKinds))
	for _, kind := range enrichmentKinds {
		progress, err := s.store.QueryEnrichmentProgress(c.Request().Context(), kind, source)
		if err != nil {
			s.logger.Error().Err(err).Str("kind", string(kind)).Msg("query enrichment progress failed")
			return internalError(c, "Failed to load enrichment progress")
		}
		items = append(items, progress)
	}
	return success(c, map[string]any{
		"items": items,
	})
}
