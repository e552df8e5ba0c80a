package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/store"
	"github.com/tetraminz/emotion_insights/internal/trends"
)

const serverName = "emotion-insights"

// Tools exposes trend queries, recent results and (optionally) live analysis
// to MCP clients. A nil process leaves analyze_text unregistered.
type Tools struct {
	store      store.Store
	aggregator *trends.Aggregator
	process    *analysis.Process
}

func New(st store.Store, process *analysis.Process) *Tools {
	return &Tools{store: st, aggregator: trends.NewAggregator(st), process: process}
}

// NewServer builds an MCP server with every available tool registered.
func NewServer(version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	tools.Register(s)
	return s
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("emotion_trends",
		mcp.WithDescription("Percentage of saved analyses per dominant emotion, bucketed by day, week or month."),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("First day, YYYY-MM-DD")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("Last day (inclusive), YYYY-MM-DD")),
		mcp.WithString("group_by", mcp.Description("day, week or month (default day)")),
		mcp.WithString("emotions", mcp.Description("Comma-separated labels, e.g. joy,anger")),
		mcp.WithString("format", mcp.Description("markdown (default) or json")),
	), t.handleTrends)

	s.AddTool(mcp.NewTool("recent_results",
		mcp.WithDescription("Most recently saved analyses, newest first."),
		mcp.WithNumber("limit", mcp.Description("How many results to return (default 10, max 100)")),
	), t.handleRecent)

	if t.process != nil {
		s.AddTool(mcp.NewTool("analyze_text",
			mcp.WithDescription("Classify the emotions in a customer review and generate business insights."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Review text")),
		), t.handleAnalyze)
	}
}

func (t *Tools) handleTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := request.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := request.RequireString("end_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q, err := trends.ParseQuery(start, end, request.GetString("group_by", ""), request.GetString("emotions", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	buckets, err := t.aggregator.Trends(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if strings.EqualFold(request.GetString("format", ""), "json") {
		raw, err := json.Marshal(map[string]any{"emotion_trends": buckets})
		if err != nil {
			return nil, fmt.Errorf("marshal trends: %w", err)
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
	return mcp.NewToolResultText(trends.FormatMarkdown(q, buckets)), nil
}

func (t *Tools) handleRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := t.store.List(ctx, request.GetInt("limit", store.DefaultListLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if len(records) == 0 {
		b.WriteString("No saved results.\n")
	}
	for _, rec := range records {
		fmt.Fprintf(&b, "- #%d %s %s: %s\n", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.Dominant, preview(rec.Content, 80))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *Tools) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.process.Analyze(ctx, text)
	if errors.Is(err, analysis.ErrEmptyText) {
		return mcp.NewToolResultError("text cannot be empty"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dominant emotion: %s\n\n", result.Dominant)
	for _, score := range result.Scores.Ranked() {
		fmt.Fprintf(&b, "- %s: %.4f\n", score.Label, score.Score)
	}
	fmt.Fprintf(&b, "\nSummary: %s\n", result.Sections.SummaryText())
	fmt.Fprintf(&b, "\nActionable insights:\n%s\n", result.Sections.InsightsText())
	fmt.Fprintf(&b, "\nSuggested response: %s\n", result.Sections.SuggestedResponseText())
	return mcp.NewToolResultText(b.String()), nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
