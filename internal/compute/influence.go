package compute

import (
	"math"
	"sort"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// DefaultTopTokens is how many influential tokens are kept when callers pass 0.
const DefaultTopTokens = 5

// Softmax turns raw logits into probabilities. It shifts by the max logit so
// large values do not overflow.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest value, first one wins on ties.
func Argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// ScoresFromLogits maps model logits onto the fixed label set using the
// model's label order. Labels outside the set are ignored.
func ScoresFromLogits(logits []float64, labelOrder []emotion.Label) emotion.Scores {
	probs := Softmax(logits)
	scores := emotion.Scores{}
	for i, p := range probs {
		if i >= len(labelOrder) || !labelOrder[i].Valid() {
			continue
		}
		scores[labelOrder[i]] = p
	}
	return scores
}

// TokenInfluence weights each token's mean attention by the logit of the
// predicted label and keeps the topK strongest. Special tokens such as
// <s>, </s>, [CLS] and [PAD] are skipped.
func TokenInfluence(tokens []string, attention []float64, logit float64, topK int) []emotion.TokenInfluence {
	if topK <= 0 {
		topK = DefaultTopTokens
	}

	type scored struct {
		pos  int
		item emotion.TokenInfluence
	}
	items := make([]scored, 0, len(tokens))
	for i, token := range tokens {
		if i >= len(attention) {
			break
		}
		if isSpecialToken(token) {
			continue
		}
		text := cleanToken(token)
		if text == "" {
			continue
		}
		items = append(items, scored{
			pos:  i,
			item: emotion.TokenInfluence{Token: text, Influence: attention[i] * logit},
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].item.Influence != items[j].item.Influence {
			return items[i].item.Influence > items[j].item.Influence
		}
		return items[i].pos < items[j].pos
	})
	if len(items) > topK {
		items = items[:topK]
	}

	out := make([]emotion.TokenInfluence, 0, len(items))
	for _, it := range items {
		out = append(out, it.item)
	}
	return out
}

func isSpecialToken(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return true
	}
	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
		return true
	}
	return strings.HasPrefix(t, "<") && strings.HasSuffix(t, ">")
}

// cleanToken strips BPE and WordPiece markers.
func cleanToken(token string) string {
	token = strings.TrimPrefix(token, "Ġ")
	token = strings.TrimPrefix(token, "▁")
	token = strings.TrimPrefix(token, "##")
	return strings.TrimSpace(token)
}
