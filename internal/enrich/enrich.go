// Package enrich fetches and parses event detail pages, persisting the
// extracted fields as an append-only enrichment stream.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/throttle"
)

// DefaultBatchSize caps how many detail pages one run fetches.
const DefaultBatchSize = 25

// DetailStore is the persistence surface detail-page enrichment needs.
type DetailStore interface {
	ListEnrichmentBacklog(ctx context.Context, kind db.EnrichmentKind, source string, limit int) ([]event.Event, error)
	StoreDetailPageEnrichment(ctx context.Context, row db.DetailPageEnrichment) error
}

// RunStats reports enrichment execution counters.
type RunStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RunOptions controls one enrichment run.
type RunOptions struct {
	// Source restricts the backlog to one source code. Empty means all.
	Source string
	// MaxItems caps the batch. Zero or negative uses DefaultBatchSize.
	MaxItems int
}

// Enricher works through the detail-page backlog one event at a time. Each
// event is attempted at most once per lifetime: both success and failure are
// recorded, and recorded events never re-enter the backlog.
type Enricher struct {
	store    DetailStore
	fetcher  PageFetcher
	throttle *throttle.Throttle
	logger   zerolog.Logger
	now      func() time.Time
}

func NewEnricher(store DetailStore, fetcher PageFetcher, th *throttle.Throttle, logger zerolog.Logger) *Enricher {
	if th == nil {
		th = throttle.New(throttle.DefaultInterval)
	}
	return &Enricher{
		store:    store,
		fetcher:  fetcher,
		throttle: th,
		logger:   logger,
		now:      time.Now,
	}
}

// Run fetches one batch of backlog events. Per-item failures are recorded and
// counted but never abort the batch; only context cancellation and storage
// errors stop the run early.
func (e *Enricher) Run(ctx context.Context, opts RunOptions) (RunStats, error) {
	limit := opts.MaxItems
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	backlog, err := e.store.ListEnrichmentBacklog(ctx, db.EnrichmentDetailPage, opts.Source, limit)
	if err != nil {
		return RunStats{}, fmt.Errorf("list enrichment backlog: %w", err)
	}

	stats := RunStats{}
	for _, ev := range backlog {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Attempted++
		page, fetchErr := e.fetchPage(ctx, ev)
		if fetchErr != nil && ctx.Err() != nil {
			return stats, ctx.Err()
		}
		row := e.buildRow(ev, page, fetchErr)
		if err := e.store.StoreDetailPageEnrichment(ctx, row); err != nil {
			return stats, fmt.Errorf("store enrichment for %s: %w", ev.Key(), err)
		}
		if fetchErr != nil {
			stats.Failed++
			e.logger.Warn().Err(fetchErr).Str("event", ev.Key()).Msg("detail page enrichment failed")
			continue
		}
		stats.Succeeded++
	}

	e.logger.Info().
		Str("source", opts.Source).
		Int("attempted", stats.Attempted).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Msg("detail page enrichment run complete")

	return stats, nil
}

func (e *Enricher) fetchPage(ctx context.Context, ev event.Event) (DetailPage, error) {
	if err := e.throttle.Wait(ev.URL); err != nil {
		return DetailPage{}, fmt.Errorf("throttle: %w", err)
	}

	body, err := e.fetcher.Fetch(ctx, ev.URL)
	if err != nil {
		return DetailPage{}, err
	}
	return ParseDetailPage(body)
}

func (e *Enricher) buildRow(ev event.Event, page DetailPage, fetchErr error) db.DetailPageEnrichment {
	row := db.DetailPageEnrichment{
		Source:        ev.Source,
		SourceID:      ev.SourceID,
		DetailPageURL: ev.URL,
		FetchedAt:     e.now().UTC(),
	}
	if fetchErr != nil {
		row.Status = db.EnrichmentStatusFailed
		msg := fetchErr.Error()
		row.ErrorMessage = &msg
		return row
	}
	row.Status = db.EnrichmentStatusSuccess
	row.Description = page.Description
	row.ContactName = page.ContactName
	row.ContactEmail = page.ContactEmail
	row.RegistrationURL = page.RegistrationURL
	return row
}
