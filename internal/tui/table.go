package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tetraminz/emotion_insights/internal/emotion"
	"github.com/tetraminz/emotion_insights/internal/trends"
)

const (
	dateColWidth  = 12
	labelColWidth = 10
	totalColWidth = 7
)

// RenderTable draws the trend matrix with one colored column per label.
func RenderTable(buckets []trends.Bucket) string {
	if len(buckets) == 0 {
		return DimStyle.Render("No submissions in range.")
	}

	labels := buckets[0].Labels
	var rows []string

	header := cell(HeaderCellStyle, "date", dateColWidth, false)
	for _, l := range labels {
		header += cell(labelStyle(l).Bold(true), string(l), labelColWidth, true)
	}
	header += cell(HeaderCellStyle, "total", totalColWidth, true)
	rows = append(rows, header)
	rows = append(rows, DividerStyle.Render(strings.Repeat("─", lipgloss.Width(header))))

	for _, b := range buckets {
		dominant := bucketDominant(b)
		row := cell(DateCellStyle, b.Date.Format(trends.DateLayout), dateColWidth, false)
		for _, l := range labels {
			style := DimStyle
			if b.Shares[l] > 0 {
				style = labelStyle(l)
			}
			if l == dominant {
				style = style.Bold(true)
			}
			row += cell(style, fmt.Sprintf("%.2f%%", b.Shares[l]), labelColWidth, true)
		}
		row += cell(DimStyle, fmt.Sprintf("%d", b.Total), totalColWidth, true)
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func cell(style lipgloss.Style, text string, width int, right bool) string {
	align := lipgloss.Left
	if right {
		align = lipgloss.Right
	}
	return style.Width(width).Align(align).Render(text)
}

// bucketDominant is the label with the highest share, ties to canonical order.
func bucketDominant(b trends.Bucket) emotion.Label {
	scores := emotion.Scores{}
	for _, l := range b.Labels {
		if b.Counts[l] > 0 {
			scores[l] = b.Shares[l]
		}
	}
	return scores.Dominant()
}
