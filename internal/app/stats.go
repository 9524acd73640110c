package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	days := fs.Int("days", 7, "Trailing window for run summaries")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, _, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	freshness, err := pool.QueryStageFreshness(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query stage freshness: %v\n", err)
		return 1
	}
	summaries, err := pool.QueryRunSummaries(ctx, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query run summaries: %v\n", err)
		return 1
	}

	progress := make([]db.EnrichmentProgress, 0, 2)
	for _, kind := range []db.EnrichmentKind{db.EnrichmentDetailPage, db.EnrichmentCategory} {
		p, err := pool.QueryEnrichmentProgress(ctx, kind, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to query enrichment progress: %v\n", err)
			return 1
		}
		progress = append(progress, p)
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"freshness":  freshness,
			"runs":       summaries,
			"enrichment": progress,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	freshnessRows := make([][]string, 0, len(freshness))
	for _, row := range freshness {
		freshnessRows = append(freshnessRows, []string{
			row.Stage,
			row.Source,
			formatUTCTimestamp(row.RunAt),
		})
	}
	if err := writeTable([]string{"stage", "source", "last_success"}, freshnessRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render freshness table: %v\n", err)
		return 1
	}

	fmt.Println()
	runRows := make([][]string, 0, len(summaries))
	for _, row := range summaries {
		runRows = append(runRows, []string{
			row.Stage,
			row.Source,
			fmt.Sprintf("%d", row.Runs),
			fmt.Sprintf("%d", row.Successes),
			fmt.Sprintf("%d", row.Failures),
			fmt.Sprintf("%d", row.Attempted),
			fmt.Sprintf("%d", row.Succeeded),
			fmt.Sprintf("%d", row.Failed),
		})
	}
	if err := writeTable([]string{"stage", "source", "runs", "ok", "err", "attempted", "succeeded", "failed"}, runRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render runs table: %v\n", err)
		return 1
	}

	fmt.Println()
	progressRows := make([][]string, 0, len(progress))
	for _, row := range progress {
		progressRows = append(progressRows, []string{
			string(row.Kind),
			fmt.Sprintf("%d", row.Enriched),
			fmt.Sprintf("%d", row.Failed),
			fmt.Sprintf("%d", row.Total),
		})
	}
	if err := writeTable([]string{"stream", "enriched", "failed", "total"}, progressRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render enrichment table: %v\n", err)
		return 1
	}

	return 0
}
