package categorize

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// DefaultBatchSize caps how many events one categorization run processes.
const DefaultBatchSize = 50

// CategoryStore is the persistence surface categorization needs.
type CategoryStore interface {
	ListEnrichmentBacklog(ctx context.Context, kind db.EnrichmentKind, source string, limit int) ([]event.Event, error)
	StoreCategoryEnrichment(ctx context.Context, row db.CategoryEnrichment) error
}

// RunStats reports categorization execution counters.
type RunStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RunOptions controls one categorization run.
type RunOptions struct {
	// Provider names the provider to use. Empty uses the registry default.
	Provider string
	// Source restricts the backlog to one source code. Empty means all.
	Source string
	// MaxItems caps the batch. Zero or negative uses DefaultBatchSize.
	MaxItems int
}

// Manager works through the category backlog with a provider from the
// registry. Like detail-page enrichment, each event is attempted once: both
// outcomes are recorded and never retried.
type Manager struct {
	store    CategoryStore
	registry *Registry
	logger   zerolog.Logger
}

func NewManager(store CategoryStore, registry *Registry, logger zerolog.Logger) *Manager {
	return &Manager{store: store, registry: registry, logger: logger}
}

// Run categorizes one batch of backlog events. Provider failures are recorded
// per event and never abort the batch.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (RunStats, error) {
	if m == nil || m.store == nil {
		return RunStats{}, fmt.Errorf("categorization manager is not initialized")
	}

	provider, err := m.registry.Provider(opts.Provider)
	if err != nil {
		return RunStats{}, err
	}

	limit := opts.MaxItems
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	backlog, err := m.store.ListEnrichmentBacklog(ctx, db.EnrichmentCategory, opts.Source, limit)
	if err != nil {
		return RunStats{}, fmt.Errorf("list category backlog: %w", err)
	}

	stats := RunStats{}
	for _, ev := range backlog {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Attempted++
		result, catErr := provider.Categorize(ctx, ev)
		if catErr == nil && !event.ValidCategory(result.Category) {
			catErr = fmt.Errorf("provider %s returned unknown category %q", provider.Name(), result.Category)
		}
		if catErr != nil && ctx.Err() != nil {
			return stats, ctx.Err()
		}

		row := buildRow(ev, provider.Name(), result, catErr)
		if err := m.store.StoreCategoryEnrichment(ctx, row); err != nil {
			return stats, fmt.Errorf("store category for %s: %w", ev.Key(), err)
		}
		if catErr != nil {
			stats.Failed++
			m.logger.Warn().Err(catErr).Str("event", ev.Key()).Msg("categorization failed")
			continue
		}
		stats.Succeeded++
	}

	m.logger.Info().
		Str("provider", provider.Name()).
		Str("source", opts.Source).
		Int("attempted", stats.Attempted).
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Msg("categorization run complete")

	return stats, nil
}

func buildRow(ev event.Event, providerName string, result Result, catErr error) db.CategoryEnrichment {
	row := db.CategoryEnrichment{
		Source:   ev.Source,
		SourceID: ev.SourceID,
		Provider: providerName,
	}
	if catErr != nil {
		row.Status = db.EnrichmentStatusFailed
		msg := catErr.Error()
		row.ErrorMessage = &msg
		return row
	}
	row.Status = db.EnrichmentStatusSuccess
	category := string(result.Category)
	row.Category = &category
	if result.Rationale != "" {
		rationale := result.Rationale
		row.Rationale = &rationale
	}
	if result.Confidence > 0 {
		confidence := result.Confidence
		row.Confidence = &confidence
	}
	return row
}
