package trends

import (
	"strings"
	"testing"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

func TestSummarizeRanksByCount(t *testing.T) {
	t.Parallel()

	buckets := Aggregate(scenarioObservations(t), mustQuery(t, "2024-01-01", "2024-01-02", "day", ""))
	s := Summarize(buckets)

	if got, want := s.Submissions, 4; got != want {
		t.Fatalf("Submissions got %d want %d", got, want)
	}
	if s.Ranked[0] != emotion.Joy || s.Ranked[1] != emotion.Anger {
		t.Fatalf("Ranked got %v", s.Ranked)
	}
	if got, want := s.LabelPercent[emotion.Anger], 50.0; got != want {
		t.Fatalf("anger percent got %v want %v", got, want)
	}
	if got, want := s.PeakBuckets[emotion.Anger].Date.Format(DateLayout), "2024-01-02"; got != want {
		t.Fatalf("anger peak got %s want %s", got, want)
	}
}

func TestFormatMarkdownContainsRowsAndTotals(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, "2024-01-01", "2024-01-02", "day", "joy,anger")
	md := FormatMarkdown(q, Aggregate(scenarioObservations(t), q))

	for _, token := range []string{
		"# Emotion Trends",
		"| date | joy | anger | total |",
		"| `2024-01-01` | 66.67% | 33.33% | `3` |",
		"- emotions: `joy,anger`",
		"- submissions: `4`",
	} {
		if !strings.Contains(md, token) {
			t.Fatalf("markdown missing %q\n%s", token, md)
		}
	}
}

func TestFormatMarkdownEmpty(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, "2024-01-01", "2024-01-02", "day", "")
	if md := FormatMarkdown(q, nil); !strings.Contains(md, "- none") {
		t.Fatalf("empty markdown got %q", md)
	}
}

func TestFormatText(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, "2024-01-02", "2024-01-02", "day", "anger")
	got := FormatText(Aggregate(scenarioObservations(t), q))
	want := "buckets=1\nsubmissions=1\n2024-01-02 anger=100.00\n"
	if got != want {
		t.Fatalf("FormatText mismatch: got %q want %q", got, want)
	}
}
