package insight

import (
	"context"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// Display text for sections the model did not produce.
const (
	NoSummary           = "No summary found."
	NoInsights          = "No insights found."
	NoSuggestedResponse = "No suggested response found."
)

// Display text when generation failed outright.
const (
	FailedSummary           = "Error generating insights."
	FailedSuggestedResponse = "Error generating suggested response."
)

// Request is one insight generation call. Batch switches the prompt to the
// multi-review wording.
type Request struct {
	Text     string
	Dominant emotion.Label
	Batch    bool
}

// Generator produces natural-language insights for a classified text.
type Generator interface {
	Generate(ctx context.Context, req Request) (Sections, error)
}

// Section is one parsed block of model output. Found is false when the
// model output had no such block.
type Section struct {
	Text  string
	Found bool
}

// Or returns the section text, or fallback when it was not found.
func (s Section) Or(fallback string) string {
	if !s.Found {
		return fallback
	}
	return s.Text
}

func found(text string) Section {
	if text == "" {
		return Section{}
	}
	return Section{Text: text, Found: true}
}

// Sections is the structured result of a generation. Err is set when the
// generator failed and no section could be produced.
type Sections struct {
	Summary           Section
	Insights          Section
	SuggestedResponse Section
	Err               error
}

// Failed wraps a generation error into sections that render as error text.
func Failed(err error) Sections {
	return Sections{Err: err}
}

func (s Sections) SummaryText() string {
	if s.Err != nil {
		return FailedSummary
	}
	return s.Summary.Or(NoSummary)
}

func (s Sections) InsightsText() string {
	if s.Err != nil {
		return "Error: " + s.Err.Error()
	}
	return s.Insights.Or(NoInsights)
}

func (s Sections) SuggestedResponseText() string {
	if s.Err != nil {
		return FailedSuggestedResponse
	}
	return s.SuggestedResponse.Or(NoSuggestedResponse)
}

// Nop never calls a model; every section is reported as not found.
type Nop struct{}

func (Nop) Generate(context.Context, Request) (Sections, error) {
	return Sections{}, nil
}
