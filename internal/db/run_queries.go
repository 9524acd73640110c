package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pipeline run statuses.
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// RecordPipelineRun appends one immutable per-stage execution record.
func (p *Pool) RecordPipelineRun(ctx context.Context, run PipelineRun) error {
	const q = `
INSERT INTO volunteer.pipeline_runs (
	run_uuid,
	stage,
	source,
	run_at,
	status,
	attempted,
	succeeded,
	failed,
	error_message
)
VALUES ($1, $2, $3, now(), $4, $5, $6, $7, $8)
`
	if _, err := p.Exec(
		ctx,
		q,
		uuid.NewString(),
		run.Stage,
		run.Source,
		run.Status,
		run.Attempted,
		run.Succeeded,
		run.Failed,
		run.ErrorMessage,
	); err != nil {
		return fmt.Errorf("record pipeline run for stage %s: %w", run.Stage, err)
	}
	return nil
}

// QueryLatestRun returns the most recent run for one stage, any source.
// Returns ErrNoRows when the stage has never run.
func (p *Pool) QueryLatestRun(ctx context.Context, stage string) (PipelineRun, error) {
	const q = `
SELECT run_uuid, stage, source, run_at, status, attempted, succeeded, failed, error_message
FROM volunteer.pipeline_runs
WHERE stage = $1
ORDER BY run_at DESC, run_id DESC
LIMIT 1
`

	var run PipelineRun
	if err := p.QueryRow(ctx, q, strings.TrimSpace(stage)).Scan(
		&run.RunUUID,
		&run.Stage,
		&run.Source,
		&run.RunAt,
		&run.Status,
		&run.Attempted,
		&run.Succeeded,
		&run.Failed,
		&run.ErrorMessage,
	); err != nil {
		return PipelineRun{}, fmt.Errorf("query latest %s run: %w", stage, err)
	}
	run.RunAt = run.RunAt.UTC()
	return run, nil
}

// StageFreshness is the most recent successful run per (stage, source).
type StageFreshness struct {
	Stage  string    `json:"stage"`
	Source string    `json:"source,omitempty"`
	RunAt  time.Time `json:"run_at"`
}

// QueryStageFreshness returns the latest successful run timestamp for each
// (stage, source) pair, for freshness display.
func (p *Pool) QueryStageFreshness(ctx context.Context) ([]StageFreshness, error) {
	const q = `
SELECT stage, COALESCE(source, ''), MAX(run_at)
FROM volunteer.pipeline_runs
WHERE status = 'success'
GROUP BY stage, source
ORDER BY stage, source
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query stage freshness: %w", err)
	}
	defer rows.Close()

	items := make([]StageFreshness, 0, 16)
	for rows.Next() {
		var row StageFreshness
		if err := rows.Scan(&row.Stage, &row.Source, &row.RunAt); err != nil {
			return nil, fmt.Errorf("scan stage freshness row: %w", err)
		}
		row.RunAt = row.RunAt.UTC()
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage freshness: %w", err)
	}

	return items, nil
}

// RunSummary aggregates run outcomes for one (stage, source) over a window.
type RunSummary struct {
	Stage     string `json:"stage"`
	Source    string `json:"source,omitempty"`
	Runs      int64  `json:"runs"`
	Successes int64  `json:"successes"`
	Failures  int64  `json:"failures"`
	Attempted int64  `json:"attempted"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`
}

// QueryRunSummaries aggregates pipeline runs over the trailing number of days.
func (p *Pool) QueryRunSummaries(ctx context.Context, days int) ([]RunSummary, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	const q = `
SELECT
	stage,
	COALESCE(source, ''),
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'success'),
	COUNT(*) FILTER (WHERE status = 'failure'),
	COALESCE(SUM(attempted), 0),
	COALESCE(SUM(succeeded), 0),
	COALESCE(SUM(failed), 0)
FROM volunteer.pipeline_runs
WHERE run_at >= $1
GROUP BY stage, source
ORDER BY stage, source
`

	rows, err := p.Query(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	items := make([]RunSummary, 0, 16)
	for rows.Next() {
		var row RunSummary
		if err := rows.Scan(
			&row.Stage,
			&row.Source,
			&row.Runs,
			&row.Successes,
			&row.Failures,
			&row.Attempted,
			&row.Succeeded,
			&row.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan run summary row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}

	return items, nil
}

// OptionalSource normalizes an empty source filter to NULL for run records.
func OptionalSource(source string) *string {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
