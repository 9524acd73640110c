package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/dedupe"
)

func runDedupe(args []string) int {
	fs := flag.NewFlagSet("dedupe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "dedupe does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, _, logger, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	result, err := dedupe.NewService(pool, logger).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dedupe run failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := [][]string{
		{"input_events", fmt.Sprintf("%d", result.InputEvents)},
		{"skipped_events", fmt.Sprintf("%d", result.SkippedEvents)},
		{"candidate_pairs", fmt.Sprintf("%d", result.CandidatePairs)},
		{"matched_pairs", fmt.Sprintf("%d", result.MatchedPairs)},
		{"clusters", fmt.Sprintf("%d", result.Clusters)},
		{"merged_clusters", fmt.Sprintf("%d", result.MergedClusters)},
		{"linked_subordinates", fmt.Sprintf("%d", result.LinkedSubordinates)},
	}
	if err := writeTable([]string{"metric", "value"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
