package trends

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// Summary rolls a trend matrix up to whole-range totals.
type Summary struct {
	Buckets      int
	Submissions  int
	LabelCounts  map[emotion.Label]int
	LabelPercent map[emotion.Label]float64
	Ranked       []emotion.Label
	PeakBuckets  map[emotion.Label]Bucket
}

// Summarize aggregates bucket counts over the whole range. Ranked orders
// labels by count, ties by canonical order.
func Summarize(buckets []Bucket) Summary {
	s := Summary{
		Buckets:      len(buckets),
		LabelCounts:  map[emotion.Label]int{},
		LabelPercent: map[emotion.Label]float64{},
		PeakBuckets:  map[emotion.Label]Bucket{},
	}
	if len(buckets) == 0 {
		return s
	}

	labels := buckets[0].Labels
	for _, b := range buckets {
		s.Submissions += b.Total
		for _, l := range b.Labels {
			s.LabelCounts[l] += b.Counts[l]
			peak, ok := s.PeakBuckets[l]
			if !ok || b.Shares[l] > peak.Shares[l] {
				s.PeakBuckets[l] = b
			}
		}
	}
	for _, l := range labels {
		if s.Submissions > 0 {
			s.LabelPercent[l] = 100.0 * float64(s.LabelCounts[l]) / float64(s.Submissions)
		}
	}

	s.Ranked = append(s.Ranked, labels...)
	sort.SliceStable(s.Ranked, func(i, j int) bool {
		ci, cj := s.LabelCounts[s.Ranked[i]], s.LabelCounts[s.Ranked[j]]
		if ci == cj {
			return emotion.Index(s.Ranked[i]) < emotion.Index(s.Ranked[j])
		}
		return ci > cj
	})
	return s
}

// FormatMarkdown renders the matrix plus a totals section.
func FormatMarkdown(q Query, buckets []Bucket) string {
	var b strings.Builder
	b.WriteString("# Emotion Trends\n\n")
	b.WriteString(fmt.Sprintf("- range: `%s` .. `%s`\n", q.Start.Format(DateLayout), q.End.Format(DateLayout)))
	b.WriteString(fmt.Sprintf("- group_by: `%s`\n", q.Granularity))
	b.WriteString(fmt.Sprintf("- emotions: `%s`\n\n", q.Filter))

	if len(buckets) == 0 {
		b.WriteString("- none\n")
		return b.String()
	}

	labels := buckets[0].Labels
	b.WriteString("| date |")
	for _, l := range labels {
		b.WriteString(fmt.Sprintf(" %s |", l))
	}
	b.WriteString(" total |\n| --- |")
	for range labels {
		b.WriteString(" ---: |")
	}
	b.WriteString(" ---: |\n")
	for _, bucket := range buckets {
		b.WriteString(fmt.Sprintf("| `%s` |", bucket.Date.Format(DateLayout)))
		for _, l := range labels {
			b.WriteString(fmt.Sprintf(" %.2f%% |", bucket.Shares[l]))
		}
		b.WriteString(fmt.Sprintf(" `%d` |\n", bucket.Total))
	}

	s := Summarize(buckets)
	b.WriteString("\n## Totals\n")
	b.WriteString(fmt.Sprintf("- buckets: `%d`\n", s.Buckets))
	b.WriteString(fmt.Sprintf("- submissions: `%d`\n", s.Submissions))
	for _, l := range s.Ranked {
		b.WriteString(fmt.Sprintf("- %s: `%d` (%.2f%%)\n", l, s.LabelCounts[l], s.LabelPercent[l]))
	}
	return b.String()
}

// FormatText is the key=value form printed by the CLI.
func FormatText(buckets []Bucket) string {
	var b strings.Builder
	s := Summarize(buckets)
	b.WriteString(fmt.Sprintf("buckets=%d\n", s.Buckets))
	b.WriteString(fmt.Sprintf("submissions=%d\n", s.Submissions))
	for _, bucket := range buckets {
		parts := make([]string, 0, len(bucket.Labels))
		for _, l := range bucket.Labels {
			parts = append(parts, fmt.Sprintf("%s=%.2f", l, bucket.Shares[l]))
		}
		b.WriteString(fmt.Sprintf("%s %s\n", bucket.Date.Format(DateLayout), strings.Join(parts, " ")))
	}
	return b.String()
}
