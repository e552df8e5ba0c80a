package emotion

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Label is one member of the closed emotion label set.
type Label string

const (
	Sadness  Label = "sadness"
	Joy      Label = "joy"
	Love     Label = "love"
	Anger    Label = "anger"
	Fear     Label = "fear"
	Surprise Label = "surprise"
)

var fixedOrder = []Label{Sadness, Joy, Love, Anger, Fear, Surprise}

// Labels returns the fixed label set in its canonical order.
func Labels() []Label {
	out := make([]Label, len(fixedOrder))
	copy(out, fixedOrder)
	return out
}

// Index returns the position of l in the canonical order, or -1.
func Index(l Label) int {
	for i, candidate := range fixedOrder {
		if candidate == l {
			return i
		}
	}
	return -1
}

func (l Label) Valid() bool {
	return Index(l) >= 0
}

// ParseLabel normalizes s and checks it against the label set.
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown emotion label %q", s)
	}
	return l, nil
}

// Filter is a parsed label filter. The zero value selects every label.
type Filter struct {
	active bool
	labels []Label
}

// ParseFilter reads a comma separated label list. Input with no non-blank
// entry means no filter. Unknown values are dropped, but a filter that named
// only unknown labels stays active and selects nothing.
func ParseFilter(raw string) Filter {
	var labels []Label
	named := false
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		named = true
		if l, err := ParseLabel(part); err == nil {
			labels = append(labels, l)
		}
	}
	if !named {
		return Filter{}
	}
	return NewFilter(labels...)
}

// NewFilter builds an active filter from already parsed labels. With no
// valid labels it selects nothing.
func NewFilter(labels ...Label) Filter {
	seen := map[Label]bool{}
	for _, l := range labels {
		if l.Valid() {
			seen[l] = true
		}
	}
	f := Filter{active: true}
	for _, l := range fixedOrder {
		if seen[l] {
			f.labels = append(f.labels, l)
		}
	}
	return f
}

func (f Filter) Active() bool { return f.active }

// Labels returns the selected labels in canonical order.
func (f Filter) Labels() []Label {
	if !f.active {
		return Labels()
	}
	out := make([]Label, len(f.labels))
	copy(out, f.labels)
	return out
}

func (f Filter) Allows(l Label) bool {
	if !f.active {
		return l.Valid()
	}
	for _, candidate := range f.labels {
		if candidate == l {
			return true
		}
	}
	return false
}

func (f Filter) String() string {
	if !f.active {
		return "all"
	}
	if len(f.labels) == 0 {
		return "none"
	}
	return joinLabels(f.labels)
}

func joinLabels(labels []Label) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, string(l))
	}
	return strings.Join(parts, ",")
}

// Scores holds one classifier score per label.
type Scores map[Label]float64

// Score is a single label/score pair, as sent over the wire.
type Score struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Dominant returns the label with the highest score. Ties resolve to the
// label that comes first in canonical order. Empty scores yield "".
func (s Scores) Dominant() Label {
	var best Label
	bestScore := 0.0
	for _, l := range fixedOrder {
		score, ok := s[l]
		if !ok {
			continue
		}
		if best == "" || score > bestScore {
			best = l
			bestScore = score
		}
	}
	return best
}

// Ordered lists every fixed label with its score (0 when missing).
func (s Scores) Ordered() []Score {
	out := make([]Score, 0, len(fixedOrder))
	for _, l := range fixedOrder {
		out = append(out, Score{Label: l, Score: s[l]})
	}
	return out
}

// Ranked lists the present labels by descending score.
func (s Scores) Ranked() []Score {
	out := make([]Score, 0, len(s))
	for _, l := range fixedOrder {
		if score, ok := s[l]; ok {
			out = append(out, Score{Label: l, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// ScoresFromList keeps known labels and ignores the rest.
func ScoresFromList(list []Score) Scores {
	out := Scores{}
	for _, item := range list {
		l, err := ParseLabel(string(item.Label))
		if err != nil {
			continue
		}
		out[l] = item.Score
	}
	return out
}

// Prediction is the classifier output for one text.
type Prediction struct {
	Scores Scores
	Tokens []TokenInfluence
}

// TokenInfluence is the contribution of one input token to the dominant label.
type TokenInfluence struct {
	Token     string  `json:"token"`
	Influence float64 `json:"influence"`
}

// Observation is the read shape the trend aggregation consumes.
type Observation struct {
	CreatedAt time.Time
	Label     Label
}
