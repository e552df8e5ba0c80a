package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/config"
	"github.com/tetraminz/emotion_insights/internal/mcptools"
)

const version = "0.1.0"

func main() {
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("error: %v", err)
	}
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("error: %v", err)
	}
}

func run(args []string) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("emotion_mcp", flag.ContinueOnError)
	cfg.RegisterStorageFlags(fs)
	cfg.RegisterAnalysisFlags(fs)
	withAnalysis := fs.Bool("analyze", false, "Expose the analyze_text tool (needs classifier settings)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var process *analysis.Process
	if *withAnalysis {
		if err := cfg.Validate(); err != nil {
			return err
		}
		p, closer, err := cfg.NewProcess()
		if err != nil {
			return err
		}
		defer closer.Close()
		process = p
	}

	s := mcptools.NewServer(version, mcptools.New(st, process))
	log.Printf("[mcp] serving on stdio db=%s analyze=%t", cfg.DatabaseURL, *withAnalysis)
	return server.ServeStdio(s)
}
