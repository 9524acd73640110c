package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/cli"
)

func runEvents(args []string) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	all := fs.Bool("all", false, "Include past events")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "events does not accept positional arguments")
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

	after := time.Now().UTC()
	if *all {
		after = time.Time{}
	}

	canonicals, err := pool.ListCanonicalEvents(ctx, after)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list events: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(canonicals); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(canonicals))
	for _, c := range canonicals {
		start := c.Start.UTC().Format("2006-01-02")
		if c.HasTimeInfo() {
			start = c.Start.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			start,
			c.Title,
			pointerStringOrEmpty(c.Venue),
			fmt.Sprintf("%d", len(c.SourceEvents)),
			c.URL,
		})
	}
	if err := writeTable([]string{"start", "title", "venue", "sources", "url"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		return 1
	}
	return 0
}
