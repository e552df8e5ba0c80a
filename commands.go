package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/config"
	"github.com/tetraminz/emotion_insights/internal/dataset"
	"github.com/tetraminz/emotion_insights/internal/store"
	"github.com/tetraminz/emotion_insights/internal/trends"
	"github.com/tetraminz/emotion_insights/internal/tui"
)

const (
	defaultInputJSONLPath = "data/submissions.jsonl"
	defaultReviewsPath    = "data/reviews.csv"
	fileInputType         = "file"
)

func runSetupCmd(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	cfg.RegisterStorageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if store.IsPostgresDSN(cfg.DatabaseURL) {
		// schema is created on open; postgres tables are never dropped here
		st, err := cfg.OpenStore(ctx)
		if err != nil {
			return err
		}
		st.Close()
		fmt.Fprintf(out, "schema_ready=true db=%s\n", redactDSN(cfg.DatabaseURL))
		return nil
	}

	if err := store.SetupSQLite(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	fmt.Fprintf(out, "schema_reset=true db=%s\n", cfg.DatabaseURL)
	return nil
}

func runImportCmd(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	inJSONL := fs.String("in_jsonl", defaultInputJSONLPath, "Path to submissions JSONL")
	cfg.RegisterStorageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	submissions, err := dataset.LoadSubmissions(*inJSONL)
	if err != nil {
		return err
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	imported := 0
	for i, sub := range submissions {
		if _, err := st.Insert(ctx, sub.Record()); err != nil {
			return fmt.Errorf("import %q row %d: %w", *inJSONL, i+1, err)
		}
		imported++
	}
	fmt.Fprintf(out, "imported_rows=%d db=%s\n", imported, redactDSN(cfg.DatabaseURL))
	return nil
}

func runAnalyzeCmd(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	in := fs.String("in", defaultReviewsPath, "Review file or directory (.csv, .jsonl, .txt)")
	limit := fs.Int("limit", 0, "Optional max number of reviews (0 means all)")
	name := fs.String("name", "", "Submitter name stored with each result")
	dryRun := fs.Bool("dry_run", false, "Classify and print without saving")
	cfg.RegisterStorageFlags(fs)
	cfg.RegisterAnalysisFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reviews, err := dataset.LoadReviews(*in, *limit)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return fmt.Errorf("no reviews found in %q", *in)
	}

	process, closer, err := cfg.NewProcess()
	if err != nil {
		return err
	}
	defer closer.Close()

	var st store.Store
	if !*dryRun {
		st, err = cfg.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	analyzed, failed := 0, 0
	for i, review := range reviews {
		result, err := process.Analyze(ctx, review.Text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, analysis.ErrEmptyText) {
				continue
			}
			failed++
			log.Printf("[analyze] %d/%d file=%s line=%d error=%v", i+1, len(reviews), review.SourceFile, review.Line, err)
			continue
		}
		log.Printf("[analyze] %d/%d file=%s line=%d dominant=%s", i+1, len(reviews), review.SourceFile, review.Line, result.Dominant)

		if st != nil {
			rec := reviewRecord(*name, review, result)
			if _, err := st.Insert(ctx, rec); err != nil {
				return fmt.Errorf("save %s line %d: %w", review.SourceFile, review.Line, err)
			}
		}
		analyzed++
	}

	fmt.Fprintf(out, "analyzed_rows=%d failed_rows=%d saved=%t\n", analyzed, failed, st != nil)
	return nil
}

func reviewRecord(name string, review dataset.Review, result analysis.Result) store.Record {
	return store.Record{
		Name:               name,
		FileName:           filepath.Base(review.SourceFile),
		Content:            review.Text,
		InputType:          fileInputType,
		Scores:             result.Scores,
		Dominant:           result.Dominant,
		Summary:            result.Sections.SummaryText(),
		ActionableInsights: result.Sections.InsightsText(),
		SuggestedResponse:  result.Sections.SuggestedResponseText(),
	}
}

func runTrendsCmd(ctx context.Context, args []string, out io.Writer) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("trends", flag.ContinueOnError)
	start := fs.String("start", "", "Start date YYYY-MM-DD (inclusive)")
	end := fs.String("end", "", "End date YYYY-MM-DD (inclusive)")
	groupBy := fs.String("group_by", string(trends.Day), "day, week or month")
	emotions := fs.String("emotions", "", "Optional comma-separated emotion filter")
	format := fs.String("format", "text", "Output format: text, markdown, table or json")
	cfg.RegisterStorageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	render, err := trendsRenderer(*format)
	if err != nil {
		return err
	}
	q, err := trends.ParseQuery(*start, *end, *groupBy, *emotions)
	if err != nil {
		return err
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	buckets, err := trends.NewAggregator(st).Trends(ctx, q)
	if err != nil {
		return err
	}
	text, err := render(q, buckets)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)
	return nil
}

type trendsRenderFunc func(trends.Query, []trends.Bucket) (string, error)

func trendsRenderer(format string) (trendsRenderFunc, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return func(_ trends.Query, b []trends.Bucket) (string, error) {
			return trends.FormatText(b), nil
		}, nil
	case "markdown", "md":
		return func(q trends.Query, b []trends.Bucket) (string, error) {
			return trends.FormatMarkdown(q, b), nil
		}, nil
	case "table":
		return func(_ trends.Query, b []trends.Bucket) (string, error) {
			return tui.RenderTable(b) + "\n", nil
		}, nil
	case "json":
		return func(_ trends.Query, b []trends.Bucket) (string, error) {
			raw, err := json.MarshalIndent(map[string]any{"emotion_trends": b}, "", "  ")
			if err != nil {
				return "", fmt.Errorf("marshal trends: %w", err)
			}
			return string(raw) + "\n", nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, markdown, table or json)", format)
	}
}

func runWatchCmd(ctx context.Context, args []string) error {
	cfg := config.FromEnv()
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	start := fs.String("start", "", "Start date YYYY-MM-DD (inclusive)")
	end := fs.String("end", "", "End date YYYY-MM-DD (inclusive)")
	groupBy := fs.String("group_by", string(trends.Day), "day, week or month")
	emotions := fs.String("emotions", "", "Optional comma-separated emotion filter")
	refresh := fs.Duration("refresh", 30*time.Second, "Reload interval (0 disables)")
	cfg.RegisterStorageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := trends.ParseQuery(*start, *end, *groupBy, *emotions)
	if err != nil {
		return err
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	p := tea.NewProgram(tui.New(trends.NewAggregator(st), q, *refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run trends viewer: %w", err)
	}
	return nil
}

// redactDSN hides the password of a postgres URL.
func redactDSN(dsn string) string {
	if !store.IsPostgresDSN(dsn) {
		return dsn
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		creds = creds[:colon] + ":***"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}
