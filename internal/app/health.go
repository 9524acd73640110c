package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/db"
	"github.com/ktrnka/seattle-outdoor-volunteering/internal/pipeline"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ctx, cancel, _, logger, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	if err := pool.DB().PingContext(ctx); err != nil {
		logger.Error().Err(err).Msg("database ping failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	sourceEvents, err := pool.CountSourceEvents(ctx, "")
	if err != nil {
		logger.Error().Err(err).Msg("health check query failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	canonicalEvents, err := pool.CountCanonicalEvents(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("health check query failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}

	fmt.Printf("database ok: %d source events, %d canonical events\n", sourceEvents, canonicalEvents)

	lastDedupe, err := pool.QueryLatestRun(ctx, pipeline.StageDedupe)
	switch {
	case db.IsNoRows(err):
		fmt.Println("dedupe has not run yet")
	case err != nil:
		logger.Error().Err(err).Msg("health check query failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	default:
		fmt.Printf("last dedupe run: %s (%s)\n", formatUTCTimestamp(lastDedupe.RunAt), lastDedupe.Status)
	}
	return 0
}
