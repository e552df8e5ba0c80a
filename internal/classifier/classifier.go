package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/emotion"
	"github.com/tetraminz/emotion_insights/internal/hf"
)

// DefaultModel is the hosted emotion model used when none is configured.
const DefaultModel = "bhadresh-savani/distilroberta-base-emotion"

// Classifier scores a text against the fixed label set.
type Classifier interface {
	Classify(ctx context.Context, text string) (emotion.Prediction, error)
}

// HTTPClassifier calls a hosted text-classification model.
type HTTPClassifier struct {
	client *hf.Client
	model  string
}

func NewHTTPClassifier(client *hf.Client, model string) *HTTPClassifier {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &HTTPClassifier{client: client, model: model}
}

type classifyRequest struct {
	Inputs  string          `json:"inputs"`
	Options classifyOptions `json:"options"`
}

type classifyOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Classify returns one score per fixed label. Labels the model does not
// know are ignored, labels it does not return score 0.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (emotion.Prediction, error) {
	if c == nil || c.client == nil {
		return emotion.Prediction{}, errors.New("classifier is not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return emotion.Prediction{}, errors.New("text is empty")
	}

	var raw json.RawMessage
	if err := c.client.Infer(ctx, c.model, classifyRequest{
		Inputs:  text,
		Options: classifyOptions{WaitForModel: true},
	}, &raw); err != nil {
		return emotion.Prediction{}, fmt.Errorf("classify: %w", err)
	}

	list, err := parseClassification(raw)
	if err != nil {
		return emotion.Prediction{}, err
	}
	scores := emotion.ScoresFromList(list)
	if len(scores) == 0 {
		return emotion.Prediction{}, fmt.Errorf("classifier returned no known labels: %s", strings.TrimSpace(string(raw)))
	}
	for _, l := range emotion.Labels() {
		if _, ok := scores[l]; !ok {
			scores[l] = 0
		}
	}
	return emotion.Prediction{Scores: scores}, nil
}

// parseClassification accepts [[{label,score}]] and [{label,score}].
func parseClassification(raw json.RawMessage) ([]emotion.Score, error) {
	var nested [][]emotion.Score
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, errors.New("classifier returned no predictions")
		}
		return nested[0], nil
	}

	var flat []emotion.Score
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	return nil, fmt.Errorf("unsupported classifier response format: %s", strings.TrimSpace(string(raw)))
}
