package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/categorize"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/config"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/dedupe"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/enrich"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/logging"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/pipeline"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/source"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/throttle"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

// bootstrap loads the environment, config, logger, and database pool shared
// by every command that touches storage.
func bootstrap(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger, *db.Pool, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, nil, fmt.Errorf("initialize logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, zerolog.Logger{}, nil, fmt.Errorf("connect to database: %w", err)
	}

	return ctx, cancel, cfg, logger, pool, nil
}

// buildRegistry wires every configured extractor.
func buildRegistry(cfg *config.Config, logger zerolog.Logger) (*source.Registry, error) {
	registry := source.NewRegistry()

	manual, err := source.NewManualExtractor(cfg.ManualEventsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("manual extractor: %w", err)
	}
	if err := registry.Register(manual); err != nil {
		return nil, err
	}

	return registry, nil
}

func buildEnricher(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) *enrich.Enricher {
	fetcher := enrich.NewHTTPFetcher(cfg.FetchTimeout)
	th := throttle.New(cfg.ThrottleInterval)
	return enrich.NewEnricher(pool, fetcher, th, logger)
}

func buildCategorizer(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*categorize.Manager, error) {
	registry := categorize.NewRegistry(cfg.CategorizeProvider)
	if err := registry.Register(categorize.NewRulesProvider()); err != nil {
		return nil, err
	}
	return categorize.NewManager(pool, registry, logger), nil
}

func buildOrchestrator(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*pipeline.Orchestrator, error) {
	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	categorizer, err := buildCategorizer(cfg, pool, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewOrchestrator(
		pool,
		registry,
		buildEnricher(cfg, pool, logger),
		categorizer,
		dedupe.NewService(pool, logger),
		pipeline.Options{
			EnrichMaxItems:     cfg.EnrichBatchSize,
			CategorizeMaxItems: cfg.CategorizeBatchSize,
		},
		logger,
	), nil
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatUTCTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func pointerStringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
