package insight

import (
	"errors"
	"strings"
	"testing"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

func TestParseSectionsBoldMarkers(t *testing.T) {
	t.Parallel()

	out := `**Summary:** The customer is delighted with the fast delivery.
**Actionable Insights:**
1. Highlight delivery speed in marketing.
2. Keep staffing levels during peak season.
3. Invite the customer to leave a public review.
**Suggested Response:** Thank you so much for the kind words!`

	got := ParseSections(out)
	if got.Summary.Text != "The customer is delighted with the fast delivery." {
		t.Fatalf("summary got %q", got.Summary.Text)
	}
	wantInsights := "1. Highlight delivery speed in marketing.\n2. Keep staffing levels during peak season.\n3. Invite the customer to leave a public review."
	if got.Insights.Text != wantInsights {
		t.Fatalf("insights got %q want %q", got.Insights.Text, wantInsights)
	}
	if got.SuggestedResponse.Text != "Thank you so much for the kind words!" {
		t.Fatalf("response got %q", got.SuggestedResponse.Text)
	}
}

func TestParseSectionsPlainMarkersAnyCase(t *testing.T) {
	t.Parallel()

	out := "SUMMARY:\nThe order arrived broken.\n\nactionable INSIGHTS:\n- Improve packaging\n\nSuggested response: We are sorry, a replacement is on the way."
	got := ParseSections(out)
	if got.Summary.Text != "The order arrived broken." {
		t.Fatalf("summary got %q", got.Summary.Text)
	}
	if got.Insights.Text != "- Improve packaging" {
		t.Fatalf("insights got %q", got.Insights.Text)
	}
	if got.SuggestedResponse.Text != "We are sorry, a replacement is on the way." {
		t.Fatalf("response got %q", got.SuggestedResponse.Text)
	}
}

func TestParseSectionsPlainInsightsLineStaysContent(t *testing.T) {
	t.Parallel()

	out := "**Summary:** Late delivery.\n**Insights:**\n1. Track couriers.\n**Suggested Response:**\nThank you!\nInsights: we shared your feedback with the delivery team."
	got := ParseSections(out)
	if got.Insights.Text != "1. Track couriers." {
		t.Fatalf("insights got %q", got.Insights.Text)
	}
	want := "Thank you!\nInsights: we shared your feedback with the delivery team."
	if got.SuggestedResponse.Text != want {
		t.Fatalf("response got %q want %q", got.SuggestedResponse.Text, want)
	}
}

func TestParseSectionsMissingMarkersAreNotFound(t *testing.T) {
	t.Parallel()

	got := ParseSections("I think the customer is happy overall.")
	if got.Summary.Found || got.Insights.Found || got.SuggestedResponse.Found {
		t.Fatalf("expected nothing found, got %+v", got)
	}
	if got.SummaryText() != NoSummary || got.InsightsText() != NoInsights || got.SuggestedResponseText() != NoSuggestedResponse {
		t.Fatalf("fallback text mismatch: %q %q %q", got.SummaryText(), got.InsightsText(), got.SuggestedResponseText())
	}
}

func TestParseSectionsSkipsEchoedTemplate(t *testing.T) {
	t.Parallel()

	out := `**Summary:** <summary>
**Actionable Insights:**
1. <insight 1>
2. <insight 2>
3. <insight 3>
**Suggested Response:** <suggested response>

**Summary:** Frustrated about the wait.
**Actionable Insights:**
1. Add order tracking.
**Suggested Response:** Sorry for the delay.`

	got := ParseSections(out)
	if got.Summary.Text != "Frustrated about the wait." {
		t.Fatalf("summary got %q", got.Summary.Text)
	}
	if got.Insights.Text != "1. Add order tracking." {
		t.Fatalf("insights got %q", got.Insights.Text)
	}
	if got.SuggestedResponse.Text != "Sorry for the delay." {
		t.Fatalf("response got %q", got.SuggestedResponse.Text)
	}
}

func TestParseSectionsKeepsFirstFilledOccurrence(t *testing.T) {
	t.Parallel()

	got := ParseSections("Summary: first\nSummary: second")
	if got.Summary.Text != "first" {
		t.Fatalf("summary got %q want first", got.Summary.Text)
	}
}

func TestFailedSectionsRenderErrorText(t *testing.T) {
	t.Parallel()

	s := Failed(errors.New("model timeout"))
	if s.SummaryText() != FailedSummary {
		t.Fatalf("summary got %q", s.SummaryText())
	}
	if s.InsightsText() != "Error: model timeout" {
		t.Fatalf("insights got %q", s.InsightsText())
	}
	if s.SuggestedResponseText() != FailedSuggestedResponse {
		t.Fatalf("response got %q", s.SuggestedResponseText())
	}
}

func TestStripEcho(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(Request{Text: "great", Dominant: emotion.Joy})
	got := StripEcho(prompt+"\n**Summary:** ok", prompt)
	if got != "**Summary:** ok" {
		t.Fatalf("strip got %q", got)
	}
}

func TestBuildPromptWording(t *testing.T) {
	t.Parallel()

	single := BuildPrompt(Request{Text: "  late again  ", Dominant: emotion.Anger})
	for _, want := range []string{`Customer Review: "late again"`, "Detected Emotion: anger", "**Suggested Response:**"} {
		if !strings.Contains(single, want) {
			t.Fatalf("single prompt missing %q:\n%s", want, single)
		}
	}

	batch := BuildPrompt(Request{Text: "a\n\nb", Dominant: emotion.Joy, Batch: true})
	for _, want := range []string{"Customer Reviews:", "Detected Dominant Emotion: joy", "overall sentiment"} {
		if !strings.Contains(batch, want) {
			t.Fatalf("batch prompt missing %q:\n%s", want, batch)
		}
	}
}
