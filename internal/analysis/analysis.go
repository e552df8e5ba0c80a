package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/classifier"
	"github.com/tetraminz/emotion_insights/internal/emotion"
	"github.com/tetraminz/emotion_insights/internal/insight"
)

var ErrEmptyText = errors.New("text is empty")

// Result is one classified text with its generated insights.
type Result struct {
	Predictions       []emotion.Score
	Scores            emotion.Scores
	Dominant          emotion.Label
	Sections          insight.Sections
	InfluentialTokens []emotion.TokenInfluence
}

// Process runs classification and then insight generation.
type Process struct {
	Classifier classifier.Classifier
	Generator  insight.Generator
}

func New(c classifier.Classifier, g insight.Generator) *Process {
	return &Process{Classifier: c, Generator: g}
}

func (p *Process) Analyze(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyText
	}
	return p.run(ctx, text, false)
}

// AnalyzeBatch classifies the non-blank texts as one combined document.
func (p *Process) AnalyzeBatch(ctx context.Context, texts []string) (Result, error) {
	kept := make([]string, 0, len(texts))
	for _, text := range texts {
		if text = strings.TrimSpace(text); text != "" {
			kept = append(kept, text)
		}
	}
	if len(kept) == 0 {
		return Result{}, ErrEmptyText
	}
	return p.run(ctx, strings.Join(kept, "\n\n"), true)
}

func (p *Process) run(ctx context.Context, text string, batch bool) (Result, error) {
	if p == nil || p.Classifier == nil {
		return Result{}, errors.New("classifier is not configured")
	}

	prediction, err := p.Classifier.Classify(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("classify text: %w", err)
	}
	dominant := prediction.Scores.Dominant()
	if dominant == "" {
		return Result{}, errors.New("classifier returned no scores")
	}

	result := Result{
		Predictions:       prediction.Scores.Ordered(),
		Scores:            prediction.Scores,
		Dominant:          dominant,
		InfluentialTokens: prediction.Tokens,
	}

	if p.Generator == nil {
		return result, nil
	}
	sections, err := p.Generator.Generate(ctx, insight.Request{Text: text, Dominant: dominant, Batch: batch})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Printf("[analysis] insight generation failed: %v", err)
		sections = insight.Failed(err)
	}
	result.Sections = sections
	return result, nil
}
