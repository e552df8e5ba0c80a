package insight

import (
	"fmt"
	"strings"
)

const markerFormat = `Format the output as:
**Summary:** <summary>
**Actionable Insights:**
1. <insight 1>
2. <insight 2>
3. <insight 3>
**Suggested Response:** <suggested response>`

// BuildTask is the model-agnostic part of the prompt.
func BuildTask(req Request) string {
	text := strings.TrimSpace(req.Text)
	if req.Batch {
		return fmt.Sprintf(`Analyze the following customer reviews and provide structured insights based on the overall sentiment.

Customer Reviews: "%s"
Detected Dominant Emotion: %s

Your response should include:
1. A short summary of the overall customer sentiment.
2. Up to three actionable business suggestions based on the overall sentiment.
3. A suggested response the business can use to address the overall sentiment.`, text, req.Dominant)
	}
	return fmt.Sprintf(`Analyze the following customer review and provide structured insights.

Customer Review: "%s"
Detected Emotion: %s

Your response should include:
1. A short summary of the customer's feelings.
2. Up to three actionable business suggestions based on the sentiment.
3. A suggested response the business can send to the customer.`, text, req.Dominant)
}

// BuildPrompt is the full text-generation prompt with the marker format the
// section parser expects.
func BuildPrompt(req Request) string {
	return BuildTask(req) + "\n\n" + markerFormat + "\n"
}
