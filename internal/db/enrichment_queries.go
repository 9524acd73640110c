package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// EnrichmentKind tags the two independent enrichment streams. They share a
// vocabulary but never a table: backlog queries and progress reporting are
// parameterized by kind, not by overloaded strings in one table.
type EnrichmentKind string

const (
	EnrichmentDetailPage EnrichmentKind = "detail_page"
	EnrichmentCategory   EnrichmentKind = "category"
)

// Enrichment row statuses.
const (
	EnrichmentStatusSuccess = "success"
	EnrichmentStatusFailed  = "failed"
	EnrichmentStatusPending = "pending"
)

func enrichmentTable(kind EnrichmentKind) (string, error) {
	switch kind {
	case EnrichmentDetailPage:
		return "volunteer.detail_page_enrichments", nil
	case EnrichmentCategory:
		return "volunteer.category_enrichments", nil
	default:
		return "", fmt.Errorf("unknown enrichment kind %q", kind)
	}
}

// ListEnrichmentBacklog returns up to limit source events that have no
// enrichment row of the given kind at all. The anti-join means a processed
// record (success or failed alike) drops out of the backlog and is never
// re-fetched. Scales by index lookup rather than full-table comparison.
func (p *Pool) ListEnrichmentBacklog(ctx context.Context, kind EnrichmentKind, source string, limit int) ([]event.Event, error) {
	table, err := enrichmentTable(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	q := fmt.Sprintf(`
SELECT
	e.source,
	e.source_id,
	e.title,
	e.start_at,
	e.end_at,
	e.venue,
	e.address,
	e.url,
	e.tags,
	e.same_as
FROM volunteer.events e
LEFT JOIN %s x
	ON x.source = e.source
	AND x.source_id = e.source_id
WHERE x.source IS NULL
  AND ($1 = '' OR e.source = $1)
ORDER BY e.start_at, e.source, e.source_id
LIMIT $2
`, table)

	rows, err := p.Query(ctx, q, strings.TrimSpace(source), limit)
	if err != nil {
		return nil, fmt.Errorf("query %s backlog: %w", kind, err)
	}
	defer rows.Close()

	items := make([]event.Event, 0, limit)
	for rows.Next() {
		var (
			e    event.Event
			tags *string
		)
		if err := rows.Scan(
			&e.Source,
			&e.SourceID,
			&e.Title,
			&e.Start,
			&e.End,
			&e.Venue,
			&e.Address,
			&e.URL,
			&tags,
			&e.SameAs,
		); err != nil {
			return nil, fmt.Errorf("scan %s backlog row: %w", kind, err)
		}
		e.Start = e.Start.UTC()
		e.End = e.End.UTC()
		e.Tags = splitTags(tags)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s backlog: %w", kind, err)
	}

	return items, nil
}

// StoreDetailPageEnrichment records the outcome of one detail-page attempt.
// Insert-only: an existing row (any status) is left alone, keeping the
// never-re-fetch contract even across interrupted runs.
func (p *Pool) StoreDetailPageEnrichment(ctx context.Context, row DetailPageEnrichment) error {
	const q = `
INSERT INTO volunteer.detail_page_enrichments (
	source,
	source_id,
	detail_page_url,
	registration_url,
	description,
	contact_name,
	contact_email,
	status,
	error_message,
	fetched_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (source, source_id) DO NOTHING
`
	if _, err := p.Exec(
		ctx,
		q,
		row.Source,
		row.SourceID,
		row.DetailPageURL,
		row.RegistrationURL,
		row.Description,
		row.ContactName,
		row.ContactEmail,
		row.Status,
		row.ErrorMessage,
	); err != nil {
		return fmt.Errorf("store detail page enrichment for %s:%s: %w", row.Source, row.SourceID, err)
	}
	return nil
}

// StoreCategoryEnrichment records the outcome of one categorization attempt.
func (p *Pool) StoreCategoryEnrichment(ctx context.Context, row CategoryEnrichment) error {
	const q = `
INSERT INTO volunteer.category_enrichments (
	source,
	source_id,
	category,
	rationale,
	confidence,
	provider,
	status,
	error_message,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (source, source_id) DO NOTHING
`
	if _, err := p.Exec(
		ctx,
		q,
		row.Source,
		row.SourceID,
		row.Category,
		row.Rationale,
		row.Confidence,
		row.Provider,
		row.Status,
		row.ErrorMessage,
	); err != nil {
		return fmt.Errorf("store category enrichment for %s:%s: %w", row.Source, row.SourceID, err)
	}
	return nil
}

// EnrichmentProgress summarizes one enrichment stream for reporting.
type EnrichmentProgress struct {
	Kind      EnrichmentKind `json:"kind"`
	Source    string         `json:"source,omitempty"`
	Enriched  int64          `json:"enriched"`
	Failed    int64          `json:"failed"`
	Total     int64          `json:"total"`
}

// QueryEnrichmentProgress reports (enriched, failed, total) counts for a
// kind, optionally filtered by source. Used by operational reporting, not by
// the match engine.
func (p *Pool) QueryEnrichmentProgress(ctx context.Context, kind EnrichmentKind, source string) (EnrichmentProgress, error) {
	table, err := enrichmentTable(kind)
	if err != nil {
		return EnrichmentProgress{}, err
	}

	q := fmt.Sprintf(`
SELECT
	COUNT(x.source_id) FILTER (WHERE x.status = 'success'),
	COUNT(x.source_id) FILTER (WHERE x.status = 'failed'),
	COUNT(*)
FROM volunteer.events e
LEFT JOIN %s x
	ON x.source = e.source
	AND x.source_id = e.source_id
WHERE ($1 = '' OR e.source = $1)
`, table)

	progress := EnrichmentProgress{Kind: kind, Source: strings.TrimSpace(source)}
	if err := p.QueryRow(ctx, q, progress.Source).Scan(&progress.Enriched, &progress.Failed, &progress.Total); err != nil {
		return EnrichmentProgress{}, fmt.Errorf("query %s enrichment progress: %w", kind, err)
	}
	return progress, nil
}
