package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tetraminz/emotion_insights/internal/config"
)

func main() {
	log.SetFlags(0)
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCLI(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func runCLI(ctx context.Context, argv []string, out io.Writer) error {
	if len(argv) < 1 {
		printUsage(out)
		return nil
	}

	command := argv[0]
	args := argv[1:]

	switch command {
	case "setup":
		return runSetupCmd(ctx, args, out)
	case "import":
		return runImportCmd(ctx, args, out)
	case "analyze":
		return runAnalyzeCmd(ctx, args, out)
	case "trends":
		return runTrendsCmd(ctx, args, out)
	case "watch":
		return runWatchCmd(ctx, args)
	case "-h", "--help", "help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  go run . setup --db data/emotion.db")
	fmt.Fprintln(out, "  go run . import --in_jsonl data/submissions.jsonl --db data/emotion.db")
	fmt.Fprintln(out, "  go run . analyze --in data/reviews.csv --db data/emotion.db [--limit 50]")
	fmt.Fprintln(out, "  go run . trends --start 2024-03-01 --end 2024-03-31 [--group_by week] [--emotions joy,anger] [--format text|markdown|table|json]")
	fmt.Fprintln(out, "  go run . watch --start 2024-03-01 --end 2024-03-31 [--refresh 30s]")
	fmt.Fprintln(out, "  go run ./cmd/emotion_api --port 8000")
	fmt.Fprintln(out, "  go run ./cmd/emotion_mcp --db data/emotion.db")
}
