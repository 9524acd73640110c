// Package pipeline sequences the ingestion stages: fetch, detail-page
// enrichment, categorization, dedupe. Each stage invocation is recorded so
// freshness and failure history are queryable afterwards.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/categorize"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/dedupe"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/enrich"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/source"
)

// Stage names as recorded in pipeline_runs.
const (
	StageFetch      = "fetch"
	StageEnrich     = "enrich"
	StageCategorize = "categorize"
	StageDedupe     = "dedupe"
)

// Store is the persistence surface the orchestrator needs directly; the
// stages carry their own.
type Store interface {
	UpsertSourceEvents(ctx context.Context, events []event.Event) error
	RecordPipelineRun(ctx context.Context, run db.PipelineRun) error
}

// DetailEnricher runs one detail-page enrichment batch.
type DetailEnricher interface {
	Run(ctx context.Context, opts enrich.RunOptions) (enrich.RunStats, error)
}

// Categorizer runs one categorization batch.
type Categorizer interface {
	Run(ctx context.Context, opts categorize.RunOptions) (categorize.RunStats, error)
}

// Deduplicator recomputes the canonical set.
type Deduplicator interface {
	Run(ctx context.Context) (dedupe.Result, error)
}

// StageResult reports one stage invocation within a full pipeline run.
type StageResult struct {
	Stage     string `json:"stage"`
	Source    string `json:"source,omitempty"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Err       error  `json:"-"`
}

// Summary aggregates a full pipeline run. A failed stage never stops the
// stages after it; the dedupe pass at the end works with whatever the
// earlier stages managed to land.
type Summary struct {
	Stages []StageResult `json:"stages"`
}

// Failed reports whether any stage invocation failed.
func (s Summary) Failed() bool {
	for _, stage := range s.Stages {
		if stage.Err != nil {
			return true
		}
	}
	return false
}

// Options carries the per-stage batch caps a combined run uses. Zero values
// fall back to the stage package defaults.
type Options struct {
	EnrichMaxItems     int
	CategorizeMaxItems int
}

// Orchestrator wires the stages together.
type Orchestrator struct {
	store       Store
	registry    *source.Registry
	enricher    DetailEnricher
	categorizer Categorizer
	deduper     Deduplicator
	opts        Options
	logger      zerolog.Logger

	runRecorder func(ctx context.Context, run db.PipelineRun) error
}

func NewOrchestrator(
	store Store,
	registry *source.Registry,
	enricher DetailEnricher,
	categorizer Categorizer,
	deduper Deduplicator,
	opts Options,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		registry:    registry,
		enricher:    enricher,
		categorizer: categorizer,
		deduper:     deduper,
		opts:        opts,
		logger:      logger,
		runRecorder: store.RecordPipelineRun,
	}
}

// RunAll executes the full pipeline. Only context cancellation aborts the
// sequence early.
func (o *Orchestrator) RunAll(ctx context.Context) (Summary, error) {
	var summary Summary

	for _, code := range o.registry.Sources() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Stages = append(summary.Stages, o.fetchSource(ctx, code))
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	summary.Stages = append(summary.Stages, o.runEnrich(ctx, enrich.RunOptions{MaxItems: o.opts.EnrichMaxItems}))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	summary.Stages = append(summary.Stages, o.runCategorize(ctx, categorize.RunOptions{MaxItems: o.opts.CategorizeMaxItems}))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	summary.Stages = append(summary.Stages, o.runDedupe(ctx))

	return summary, nil
}

// FetchSource runs the fetch stage for one source.
func (o *Orchestrator) FetchSource(ctx context.Context, code string) StageResult {
	return o.fetchSource(ctx, code)
}

func (o *Orchestrator) fetchSource(ctx context.Context, code string) StageResult {
	result := StageResult{Stage: StageFetch, Source: code}

	extractor, err := o.registry.Get(code)
	if err != nil {
		result.Err = err
		o.recordStage(ctx, result)
		return result
	}

	events, err := extractor.Extract(ctx)
	if err != nil {
		result.Err = fmt.Errorf("extract %s: %w", code, err)
		o.recordStage(ctx, result)
		return result
	}
	result.Attempted = len(events)

	valid := events[:0]
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			result.Failed++
			o.logger.Warn().Err(err).Str("source", code).Msg("dropping invalid extracted event")
			continue
		}
		valid = append(valid, ev)
	}

	if err := o.store.UpsertSourceEvents(ctx, valid); err != nil {
		result.Err = fmt.Errorf("upsert %s events: %w", code, err)
		o.recordStage(ctx, result)
		return result
	}
	result.Succeeded = len(valid)

	o.logger.Info().
		Str("source", code).
		Int("extracted", result.Attempted).
		Int("stored", result.Succeeded).
		Msg("fetch stage complete")
	o.recordStage(ctx, result)
	return result
}

func (o *Orchestrator) runEnrich(ctx context.Context, opts enrich.RunOptions) StageResult {
	result := StageResult{Stage: StageEnrich, Source: opts.Source}
	stats, err := o.enricher.Run(ctx, opts)
	result.Attempted = stats.Attempted
	result.Succeeded = stats.Succeeded
	result.Failed = stats.Failed
	result.Err = err
	o.recordStage(ctx, result)
	return result
}

func (o *Orchestrator) runCategorize(ctx context.Context, opts categorize.RunOptions) StageResult {
	result := StageResult{Stage: StageCategorize, Source: opts.Source}
	stats, err := o.categorizer.Run(ctx, opts)
	result.Attempted = stats.Attempted
	result.Succeeded = stats.Succeeded
	result.Failed = stats.Failed
	result.Err = err
	o.recordStage(ctx, result)
	return result
}

func (o *Orchestrator) runDedupe(ctx context.Context) StageResult {
	result := StageResult{Stage: StageDedupe}
	dedupeResult, err := o.deduper.Run(ctx)
	result.Attempted = dedupeResult.InputEvents
	result.Succeeded = dedupeResult.Clusters
	result.Failed = dedupeResult.SkippedEvents
	result.Err = err
	o.recordStage(ctx, result)
	return result
}

func (o *Orchestrator) recordStage(ctx context.Context, result StageResult) {
	run := db.PipelineRun{
		Stage:     result.Stage,
		Source:    db.OptionalSource(result.Source),
		Status:    db.RunStatusSuccess,
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
	if result.Err != nil {
		run.Status = db.RunStatusFailure
		msg := result.Err.Error()
		run.ErrorMessage = &msg
	}
	if err := o.runRecorder(ctx, run); err != nil {
		o.logger.Error().Err(err).Str("stage", result.Stage).Msg("failed to record pipeline run")
	}
}
