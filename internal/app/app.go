// Package app implements the volunteer-events CLI commands.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "enrich":
		return runEnrich(args[1:])
	case "categorize":
		return runCategorize(args[1:])
	case "dedupe":
		return runDedupe(args[1:])
	case "run", "run-once":
		return runPipeline(args[1:])
	case "events":
		return runEvents(args[1:])
	case "stats":
		return runStats(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "volunteer-events CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  volunteer-events <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  fetch       Fetch listings from one or all sources")
	fmt.Fprintln(os.Stderr, "  enrich      Work through the detail-page enrichment backlog")
	fmt.Fprintln(os.Stderr, "  categorize  Work through the categorization backlog")
	fmt.Fprintln(os.Stderr, "  dedupe      Recompute the published canonical events")
	fmt.Fprintln(os.Stderr, "  run         Run fetch + enrich + categorize + dedupe in sequence")
	fmt.Fprintln(os.Stderr, "  run-once    Alias for run")
	fmt.Fprintln(os.Stderr, "  events      List published canonical events")
	fmt.Fprintln(os.Stderr, "  stats       Show pipeline freshness and run outcomes")
	fmt.Fprintln(os.Stderr, "  serve       Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"volunteer-events <command> -h\" for command-specific flags.")
}
