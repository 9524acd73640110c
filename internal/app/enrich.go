package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/enrich"
)

func runEnrich(args []string) int {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	sourceFlag := fs.String("source", "", "Restrict the backlog to one source code")
	maxItems := fs.Int("max-items", 0, "Batch size cap (0 uses ENRICH_BATCH_SIZE)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "enrich does not accept positional arguments")
		return 2
	}

	ctx, cancel, cfg, logger, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	limit := *maxItems
	if limit <= 0 {
		limit = cfg.EnrichBatchSize
	}

	enricher := buildEnricher(cfg, pool, logger)
	stats, err := enricher.Run(ctx, enrich.RunOptions{
		Source:   strings.ToUpper(strings.TrimSpace(*sourceFlag)),
		MaxItems: limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enrichment run failed: %v\n", err)
		return 1
	}

	fmt.Printf("enriched %d of %d attempted (%d failed)\n", stats.Succeeded, stats.Attempted, stats.Failed)
	return 0
}
