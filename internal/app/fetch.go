package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	sourceFlag := fs.String("source", "", "Fetch one source code instead of all")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "fetch does not accept positional arguments")
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

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build source registry: %v\n", err)
		return 1
	}

	codes := registry.Sources()
	if code := strings.ToUpper(strings.TrimSpace(*sourceFlag)); code != "" {
		codes = []string{code}
	}

	exitCode := 0
	for _, code := range codes {
		result := orch.FetchSource(ctx, code)
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "Fetch %s failed: %v\n", code, result.Err)
			exitCode = 1
			continue
		}
		fmt.Printf("%s: extracted %d, stored %d, dropped %d\n",
			code, result.Attempted, result.Succeeded, result.Failed)
	}
	return exitCode
}
