package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
)

func runPipeline(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run does not accept positional arguments")
		return 2
	}

	ctx, cancel, cfg, logger, pool, err := bootstrap(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	orch, err := buildOrchestrator(cfg, pool, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	summary, err := orch.RunAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline run aborted: %v\n", err)
		return 1
	}

	rows := make([][]string, 0, len(summary.Stages))
	for _, stage := range summary.Stages {
		status := "ok"
		if stage.Err != nil {
			status = stage.Err.Error()
		}
		rows = append(rows, []string{
			stage.Stage,
			stage.Source,
			fmt.Sprintf("%d", stage.Attempted),
			fmt.Sprintf("%d", stage.Succeeded),
			fmt.Sprintf("%d", stage.Failed),
			status,
		})
	}
	if err := writeTable([]string{"stage", "source", "attempted", "succeeded", "failed", "status"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}

	if summary.Failed() {
		return 1
	}
	return 0
}
