package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// Bucket is one row of the trend matrix: the share of each label among the
// bucket's selected submissions.
type Bucket struct {
	Date   time.Time
	Labels []emotion.Label
	Shares map[emotion.Label]float64
	Counts map[emotion.Label]int
	Total  int
}

// Share returns the percentage for l, 0 when the label is not emitted.
func (b Bucket) Share(l emotion.Label) float64 {
	return b.Shares[l]
}

// MarshalJSON writes {"date": "...", "<label>": pct, ...} with labels in
// canonical order.
func (b Bucket) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	buf.WriteString(strconv.Quote(b.Date.Format(DateLayout)))
	for _, l := range b.Labels {
		buf.WriteByte(',')
		buf.WriteString(strconv.Quote(string(l)))
		buf.WriteByte(':')
		value, err := json.Marshal(b.Shares[l])
		if err != nil {
			return nil, fmt.Errorf("marshal share %s: %w", l, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Aggregate builds the dense, date-ordered trend matrix for q from raw
// observations. Buckets with no selected observation are not emitted.
// Without a filter every fixed label is present in each bucket; with one,
// exactly the filtered labels are.
func Aggregate(observations []emotion.Observation, q Query) []Bucket {
	labels := q.Filter.Labels()
	if len(labels) == 0 {
		return []Bucket{}
	}

	type counter struct {
		counts map[emotion.Label]int
		total  int
	}
	byStart := map[time.Time]*counter{}
	for _, obs := range observations {
		if !q.Contains(obs.CreatedAt) || !q.Filter.Allows(obs.Label) {
			continue
		}
		start := q.Granularity.BucketStart(obs.CreatedAt)
		c := byStart[start]
		if c == nil {
			c = &counter{counts: map[emotion.Label]int{}}
			byStart[start] = c
		}
		c.counts[obs.Label]++
		c.total++
	}

	starts := make([]time.Time, 0, len(byStart))
	for start := range byStart {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	buckets := make([]Bucket, 0, len(starts))
	for _, start := range starts {
		c := byStart[start]
		b := Bucket{
			Date:   start,
			Labels: labels,
			Shares: make(map[emotion.Label]float64, len(labels)),
			Counts: make(map[emotion.Label]int, len(labels)),
			Total:  c.total,
		}
		for _, l := range labels {
			n := c.counts[l]
			b.Counts[l] = n
			b.Shares[l] = 100.0 * float64(n) / float64(c.total)
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// Source reads (created_at, dominant label) pairs for [from, to). A nil
// labels slice means no label restriction.
type Source interface {
	QueryRange(ctx context.Context, from, to time.Time, labels []emotion.Label) ([]emotion.Observation, error)
}

// Aggregator runs trend queries against a Source. It holds no mutable state.
type Aggregator struct {
	source Source
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Trends returns the trend matrix for q. An empty range is an empty slice,
// never an error.
func (a *Aggregator) Trends(ctx context.Context, q Query) ([]Bucket, error) {
	if a == nil || a.source == nil {
		return nil, fmt.Errorf("trend aggregator is not initialized")
	}
	if q.Filter.Active() && len(q.Filter.Labels()) == 0 {
		return []Bucket{}, nil
	}

	var labels []emotion.Label
	if q.Filter.Active() {
		labels = q.Filter.Labels()
	}
	from, to := q.Window()
	observations, err := a.source.QueryRange(ctx, from, to, labels)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	return Aggregate(observations, q), nil
}

// TrendsFromParams parses raw request parameters and runs the query.
func (a *Aggregator) TrendsFromParams(ctx context.Context, start, end, groupBy, emotions string) ([]Bucket, error) {
	q, err := ParseQuery(start, end, groupBy, emotions)
	if err != nil {
		return nil, err
	}
	return a.Trends(ctx, q)
}
