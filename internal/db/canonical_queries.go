package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// ReplaceCanonicalEvents atomically swaps the published canonical set and its
// membership partition. The whole assignment is recomputed each dedupe run,
// so both tables are cleared and rewritten in one transaction; concurrent
// readers never observe a half-updated run.
func (p *Pool) ReplaceCanonicalEvents(ctx context.Context, canonicals []event.CanonicalEvent) error {
	if p == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin canonical replace tx: %w", err)
	}

	if err := replaceCanonicalEventsTx(ctx, tx, canonicals); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit canonical replace tx: %w", err)
	}
	return nil
}

func replaceCanonicalEventsTx(ctx context.Context, tx Tx, canonicals []event.CanonicalEvent) error {
	if _, err := tx.Exec(ctx, `DELETE FROM volunteer.event_group_memberships`); err != nil {
		return fmt.Errorf("clear event group memberships: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM volunteer.canonical_events`); err != nil {
		return fmt.Errorf("clear canonical events: %w", err)
	}

	const insertCanonical = `
INSERT INTO volunteer.canonical_events (
	canonical_id,
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
	source_count,
	provenance,
	computed_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
`
	const insertMembership = `
INSERT INTO volunteer.event_group_memberships (canonical_id, source, source_id)
VALUES ($1, $2, $3)
`

	for _, c := range canonicals {
		var provenance []byte
		if len(c.Provenance) > 0 {
			encoded, err := json.Marshal(c.Provenance)
			if err != nil {
				return fmt.Errorf("encode provenance for %s: %w", c.CanonicalID, err)
			}
			provenance = encoded
		}

		if _, err := tx.Exec(
			ctx,
			insertCanonical,
			c.CanonicalID,
			c.Title,
			c.Start.UTC(),
			c.End.UTC(),
			c.Venue,
			c.Address,
			c.URL,
			c.Cost,
			c.Latitude,
			c.Longitude,
			joinTags(c.Tags),
			len(c.SourceEvents),
			nullableJSON(provenance),
		); err != nil {
			return fmt.Errorf("insert canonical event %s: %w", c.CanonicalID, err)
		}

		for _, key := range c.SourceEvents {
			source, sourceID, err := event.SplitKey(key)
			if err != nil {
				return fmt.Errorf("membership for canonical %s: %w", c.CanonicalID, err)
			}
			if _, err := tx.Exec(ctx, insertMembership, c.CanonicalID, source, sourceID); err != nil {
				return fmt.Errorf("insert membership %s -> %s: %w", key, c.CanonicalID, err)
			}
		}
	}

	return nil
}

// ListCanonicalEvents returns the published canonical set, oldest first.
// When after is non-zero, only events that have not ended by then are
// returned.
func (p *Pool) ListCanonicalEvents(ctx context.Context, after time.Time) ([]event.CanonicalEvent, error) {
	const q = `
SELECT
	c.canonical_id,
	c.title,
	c.start_at,
	c.end_at,
	c.venue,
	c.address,
	c.url,
	c.cost,
	c.latitude,
	c.longitude,
	c.tags,
	c.provenance,
	COALESCE(
		array_to_string(
			ARRAY(
				SELECT m.source || ':' || m.source_id
				FROM volunteer.event_group_memberships m
				WHERE m.canonical_id = c.canonical_id
				ORDER BY m.source, m.source_id
			),
			','
		),
		''
	)
FROM volunteer.canonical_events c
WHERE ($1::timestamptz IS NULL OR c.end_at >= $1)
ORDER BY c.start_at, c.canonical_id
`

	var afterArg *time.Time
	if !after.IsZero() {
		utc := after.UTC()
		afterArg = &utc
	}

	rows, err := p.Query(ctx, q, afterArg)
	if err != nil {
		return nil, fmt.Errorf("query canonical events: %w", err)
	}
	defer rows.Close()

	items := make([]event.CanonicalEvent, 0, 128)
	for rows.Next() {
		var (
			c          event.CanonicalEvent
			tags       *string
			provenance []byte
			members    string
		)
		if err := rows.Scan(
			&c.CanonicalID,
			&c.Title,
			&c.Start,
			&c.End,
			&c.Venue,
			&c.Address,
			&c.URL,
			&c.Cost,
			&c.Latitude,
			&c.Longitude,
			&tags,
			&provenance,
			&members,
		); err != nil {
			return nil, fmt.Errorf("scan canonical event row: %w", err)
		}
		c.Start = c.Start.UTC()
		c.End = c.End.UTC()
		c.Tags = splitTags(tags)
		c.SourceEvents = splitTags(&members)
		if len(provenance) > 0 {
			if err := json.Unmarshal(provenance, &c.Provenance); err != nil {
				return nil, fmt.Errorf("decode provenance for %s: %w", c.CanonicalID, err)
			}
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate canonical events: %w", err)
	}

	return items, nil
}

// CountCanonicalEvents returns the size of the published set.
func (p *Pool) CountCanonicalEvents(ctx context.Context) (int64, error) {
	var count int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM volunteer.canonical_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count canonical events: %w", err)
	}
	return count, nil
}
