package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/categorize"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
)

func runCategorize(args []string) int {
	fs := flag.NewFlagSet("categorize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	provider := fs.String("provider", "", "Provider name (empty uses CATEGORIZE_PROVIDER)")
	sourceFlag := fs.String("source", "", "Restrict the backlog to one source code")
	maxItems := fs.Int("max-items", 0, "Batch size cap (0 uses CATEGORIZE_BATCH_SIZE)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "categorize does not accept positional arguments")
		return 2
	}

	ctx, cancel, cfg, logger, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	manager, err := buildCategorizer(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build categorizer: %v\n", err)
		return 1
	}

	limit := *maxItems
	if limit <= 0 {
		limit = cfg.CategorizeBatchSize
	}

	stats, err := manager.Run(ctx, categorize.RunOptions{
		Provider: *provider,
		Source:   strings.ToUpper(strings.TrimSpace(*sourceFlag)),
		MaxItems: limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Categorization run failed: %v\n", err)
		return 1
	}

	fmt.Printf("categorized %d of %d attempted (%d failed)\n", stats.Succeeded, stats.Attempted, stats.Failed)
	return 0
}
