package store

import (
	"time"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// Submission is the save payload used by POST /save and by JSONL imports.
// CreatedAt is only honored by imports.
type Submission struct {
	Name               string          `json:"name"`
	FileName           string          `json:"file_name"`
	Content            string          `json:"content"`
	InputType          string          `json:"input_type"`
	EmotionResult      []emotion.Score `json:"emotion_result"`
	DominantEmotion    string          `json:"dominant_emotion"`
	Summary            string          `json:"summary"`
	ActionableInsights string          `json:"actionable_insights"`
	SuggestedResponse  string          `json:"suggested_response"`
	CreatedAt          *time.Time      `json:"created_at,omitempty"`
}

func (s Submission) Record() Record {
	rec := Record{
		Name:               s.Name,
		FileName:           s.FileName,
		Content:            s.Content,
		InputType:          s.InputType,
		Scores:             emotion.ScoresFromList(s.EmotionResult),
		Dominant:           emotion.Label(s.DominantEmotion),
		Summary:            s.Summary,
		ActionableInsights: s.ActionableInsights,
		SuggestedResponse:  s.SuggestedResponse,
	}
	if s.CreatedAt != nil {
		rec.CreatedAt = *s.CreatedAt
	}
	return rec
}
