package insight

import (
	"strings"
)

type sectionKind int

const (
	kindNone sectionKind = iota
	kindSummary
	kindInsights
	kindResponse
)

var markers = []struct {
	prefix   string
	kind     sectionKind
	boldOnly bool
}{
	{"summary:", kindSummary, false},
	{"actionable insights:", kindInsights, false},
	// a plain "Insights:" is too common inside prose
	{"insights:", kindInsights, true},
	{"suggested response:", kindResponse, false},
}

// ParseSections splits model output on the Summary / Actionable Insights /
// Suggested Response markers. Markers may be bold or plain, in any case,
// and content may start on the marker line or below it. A section runs
// until the next marker. Absent or placeholder-only sections come back
// with Found=false. It never fails.
func ParseSections(text string) Sections {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	collected := map[sectionKind][]string{}
	seen := map[sectionKind]int{}
	current := kindNone
	occurrence := 0

	for _, line := range strings.Split(text, "\n") {
		if kind, rest, ok := matchMarker(line); ok {
			seen[kind]++
			current = kind
			occurrence = seen[kind]
			// only the first occurrence that carries content counts
			if occurrence > 1 && hasContent(collected[kind]) {
				current = kindNone
				continue
			}
			collected[kind] = nil
			if rest != "" {
				collected[kind] = append(collected[kind], rest)
			}
			continue
		}
		if current == kindNone {
			continue
		}
		collected[current] = append(collected[current], line)
	}

	return Sections{
		Summary:           found(cleanBlock(collected[kindSummary])),
		Insights:          found(cleanBlock(collected[kindInsights])),
		SuggestedResponse: found(cleanBlock(collected[kindResponse])),
	}
}

// StripEcho removes a prompt the model repeated in front of its answer.
func StripEcho(generated, prompt string) string {
	if prompt != "" {
		generated = strings.Replace(generated, prompt, "", 1)
		if trimmed := strings.TrimSpace(prompt); trimmed != "" {
			generated = strings.Replace(generated, trimmed, "", 1)
		}
	}
	return strings.TrimSpace(generated)
}

func matchMarker(line string) (sectionKind, string, bool) {
	cleaned := strings.TrimSpace(line)
	cleaned = strings.TrimLeft(cleaned, "#> ")
	bold := strings.HasPrefix(cleaned, "**") || strings.HasPrefix(cleaned, "__")
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	cleaned = strings.ReplaceAll(cleaned, "__", "")
	cleaned = strings.TrimSpace(cleaned)
	lower := strings.ToLower(cleaned)

	for _, m := range markers {
		if m.boldOnly && !bold {
			continue
		}
		if strings.HasPrefix(lower, m.prefix) {
			return m.kind, strings.TrimSpace(cleaned[len(m.prefix):]), true
		}
	}
	return kindNone, "", false
}

func cleanBlock(lines []string) string {
	var kept []string
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		kept = append(kept, strings.TrimSpace(line))
	}
	block := strings.TrimSpace(strings.Join(kept, "\n"))
	if isPlaceholder(block) {
		return ""
	}
	return block
}

func hasContent(lines []string) bool {
	return cleanBlock(lines) != ""
}

// isPlaceholder catches echoed template slots such as "<summary>" or
// "1. <insight 1>\n2. <insight 2>".
func isPlaceholder(block string) bool {
	if block == "" {
		return true
	}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-) ")
		if line == "" {
			continue
		}
		if !(strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">")) {
			return false
		}
	}
	return true
}
