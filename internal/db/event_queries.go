package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// UpsertSourceEvents inserts or updates listings keyed by (source, source_id).
// Re-ingesting the same listing updates fields in place and never creates a
// duplicate row; enrichment tables are untouched.
func (p *Pool) UpsertSourceEvents(ctx context.Context, events []event.Event) error {
	if p == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	const q = `
INSERT INTO volunteer.events (
	source,
	source_id,
	title,
	start_at,
	end_at,
	venue,
	address,
	url,
	cost,
	latitude,
	longitude,
	tags,
	same_as,
	source_payload,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
ON CONFLICT (source, source_id)
DO UPDATE SET
	title = EXCLUDED.title,
	start_at = EXCLUDED.start_at,
	end_at = EXCLUDED.end_at,
	venue = EXCLUDED.venue,
	address = EXCLUDED.address,
	url = EXCLUDED.url,
	cost = EXCLUDED.cost,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	tags = EXCLUDED.tags,
	same_as = EXCLUDED.same_as,
	source_payload = EXCLUDED.source_payload,
	updated_at = now()
`

	for _, e := range events {
		if _, err := p.Exec(
			ctx,
			q,
			e.Source,
			e.SourceID,
			e.Title,
			e.Start.UTC(),
			e.End.UTC(),
			e.Venue,
			e.Address,
			e.URL,
			e.Cost,
			e.Latitude,
			e.Longitude,
			joinTags(e.Tags),
			e.SameAs,
			nullableJSON(e.SourcePayload),
		); err != nil {
			return fmt.Errorf("upsert event %s: %w", e.Key(), err)
		}
	}

	return nil
}

// UpdateSameAs points a source event at the canonical URL chosen for its
// cluster. Only the dedupe stage calls this.
func (p *Pool) UpdateSameAs(ctx context.Context, source, sourceID string, sameAs *string) error {
	const q = `
UPDATE volunteer.events
SET same_as = $3, updated_at = now()
WHERE source = $1 AND source_id = $2
`
	if _, err := p.Exec(ctx, q, source, sourceID, sameAs); err != nil {
		return fmt.Errorf("update same_as for %s:%s: %w", source, sourceID, err)
	}
	return nil
}

// ListMatchInput returns all source events joined with both enrichment
// streams, the exact input the match engine consumes.
func (p *Pool) ListMatchInput(ctx context.Context) ([]event.Event, error) {
	const q = `
SELECT
	e.source,
	e.source_id,
	e.title,
	e.start_at,
	e.end_at,
	e.venue,
	e.address,
	e.url,
	e.cost,
	e.latitude,
	e.longitude,
	e.tags,
	e.same_as,
	d.registration_url,
	c.category
FROM volunteer.events e
LEFT JOIN volunteer.detail_page_enrichments d
	ON d.source = e.source
	AND d.source_id = e.source_id
	AND d.status = 'success'
LEFT JOIN volunteer.category_enrichments c
	ON c.source = e.source
	AND c.source_id = e.source_id
	AND c.status = 'success'
ORDER BY e.start_at, e.source, e.source_id
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query match input: %w", err)
	}
	defer rows.Close()

	items := make([]event.Event, 0, 256)
	for rows.Next() {
		var (
			e        event.Event
			tags     *string
			category *string
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
			&e.Cost,
			&e.Latitude,
			&e.Longitude,
			&tags,
			&e.SameAs,
			&e.EnrichmentURL,
			&category,
		); err != nil {
			return nil, fmt.Errorf("scan match input row: %w", err)
		}
		e.Start = e.Start.UTC()
		e.End = e.End.UTC()
		e.Tags = splitTags(tags)
		if category != nil {
			c := event.Category(*category)
			e.Category = &c
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match input: %w", err)
	}

	return items, nil
}

// CountSourceEvents returns the number of stored listings, optionally
// filtered by source.
func (p *Pool) CountSourceEvents(ctx context.Context, source string) (int64, error) {
	const q = `
SELECT COUNT(*)
FROM volunteer.events
WHERE ($1 = '' OR source = $1)
`
	var count int64
	if err := p.QueryRow(ctx, q, strings.TrimSpace(source)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count source events: %w", err)
	}
	return count, nil
}

func joinTags(tags []string) *string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	joined := strings.Join(cleaned, ",")
	return &joined
}

func splitTags(raw *string) []string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	parts := strings.Split(*raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
