package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/hf"
)

// DefaultTextModel is the hosted instruction model used for insights.
const DefaultTextModel = "mistralai/Mistral-7B-Instruct-v0.3"

const defaultMaxNewTokens = 400

// HFGenerator asks a hosted text-generation model for marker-formatted
// insights and parses the answer.
type HFGenerator struct {
	client       *hf.Client
	model        string
	maxNewTokens int
}

func NewHFGenerator(client *hf.Client, model string) *HFGenerator {
	if strings.TrimSpace(model) == "" {
		model = DefaultTextModel
	}
	return &HFGenerator{client: client, model: model, maxNewTokens: defaultMaxNewTokens}
}

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

type generationResult struct {
	GeneratedText string `json:"generated_text"`
}

func (g *HFGenerator) Generate(ctx context.Context, req Request) (Sections, error) {
	if g == nil || g.client == nil {
		return Sections{}, errors.New("insight generator is not initialized")
	}
	prompt := BuildPrompt(req)

	var out []generationResult
	if err := g.client.Infer(ctx, g.model, generationRequest{
		Inputs: prompt,
		Parameters: generationParameters{
			MaxNewTokens:   g.maxNewTokens,
			ReturnFullText: false,
		},
	}, &out); err != nil {
		return Sections{}, fmt.Errorf("generate insights: %w", err)
	}
	if len(out) == 0 {
		return Sections{}, errors.New("text generation returned no output")
	}
	return ParseSections(StripEcho(out[0].GeneratedText, prompt)), nil
}
