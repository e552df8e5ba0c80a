package mcptools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/emotion"
	"github.com/tetraminz/emotion_insights/internal/store"
)

type stubClassifier struct{}

func (stubClassifier) Classify(context.Context, string) (emotion.Prediction, error) {
	return emotion.Prediction{Scores: emotion.Scores{emotion.Surprise: 0.6, emotion.Joy: 0.3}}, nil
}

func newTools(t *testing.T) (*Tools, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "mcp.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	for _, obs := range []struct {
		at    string
		label emotion.Label
	}{
		{"2024-03-04T10:00:00Z", emotion.Joy},
		{"2024-03-05T10:00:00Z", emotion.Fear},
	} {
		createdAt, _ := time.Parse(time.RFC3339, obs.at)
		if _, err := st.Insert(context.Background(), store.Record{CreatedAt: createdAt, Content: "review " + string(obs.label), Dominant: obs.label}); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}
	return New(st, analysis.New(stubClassifier{}, nil)), st
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type got %T want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestTrendsToolMarkdownAndJSON(t *testing.T) {
	t.Parallel()

	tools, _ := newTools(t)

	result, err := tools.handleTrends(context.Background(), callRequest("emotion_trends", map[string]any{
		"start_date": "2024-03-04",
		"end_date":   "2024-03-10",
		"group_by":   "week",
	}))
	if err != nil {
		t.Fatalf("handleTrends error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	md := resultText(t, result)
	if !strings.Contains(md, "# Emotion Trends") || !strings.Contains(md, "2024-03-04") {
		t.Fatalf("markdown mismatch:\n%s", md)
	}

	result, err = tools.handleTrends(context.Background(), callRequest("emotion_trends", map[string]any{
		"start_date": "2024-03-04",
		"end_date":   "2024-03-10",
		"group_by":   "week",
		"emotions":   "joy",
		"format":     "json",
	}))
	if err != nil {
		t.Fatalf("handleTrends json error: %v", err)
	}
	if got, want := resultText(t, result), `{"emotion_trends":[{"date":"2024-03-04","joy":100}]}`; got != want {
		t.Fatalf("json got %s want %s", got, want)
	}
}

func TestTrendsToolReportsInvalidInput(t *testing.T) {
	t.Parallel()

	tools, _ := newTools(t)

	result, err := tools.handleTrends(context.Background(), callRequest("emotion_trends", map[string]any{"start_date": "2024-03-04"}))
	if err != nil {
		t.Fatalf("handleTrends error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("missing end_date should be a tool error")
	}

	result, _ = tools.handleTrends(context.Background(), callRequest("emotion_trends", map[string]any{
		"start_date": "2024-03-10",
		"end_date":   "2024-03-04",
	}))
	if !result.IsError {
		t.Fatalf("reversed range should be a tool error")
	}
}

func TestRecentResultsTool(t *testing.T) {
	t.Parallel()

	tools, _ := newTools(t)
	result, err := tools.handleRecent(context.Background(), callRequest("recent_results", map[string]any{"limit": 1}))
	if err != nil {
		t.Fatalf("handleRecent error: %v", err)
	}
	text := resultText(t, result)
	if strings.Count(text, "\n") != 1 || !strings.Contains(text, "fear") {
		t.Fatalf("recent text mismatch:\n%s", text)
	}
}

func TestAnalyzeTool(t *testing.T) {
	t.Parallel()

	tools, _ := newTools(t)
	result, err := tools.handleAnalyze(context.Background(), callRequest("analyze_text", map[string]any{"text": "did not expect that"}))
	if err != nil {
		t.Fatalf("handleAnalyze error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Dominant emotion: surprise") || !strings.Contains(text, "No summary found.") {
		t.Fatalf("analyze text mismatch:\n%s", text)
	}

	result, _ = tools.handleAnalyze(context.Background(), callRequest("analyze_text", map[string]any{"text": "  "}))
	if !result.IsError {
		t.Fatalf("blank text should be a tool error")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	t.Parallel()

	tools, _ := newTools(t)
	if s := NewServer("test", tools); s == nil {
		t.Fatalf("NewServer returned nil")
	}
}
