// Package prompt renders the text sent to every backend for a question.
package prompt

import (
	"fmt"
	"strings"
)

// QueryPlaceholder marks where the question text goes in a template.
const QueryPlaceholder = "{{query}}"

// DefaultTemplate asks for a free-form answer that names the chosen letter.
const DefaultTemplate = `Answer the following multiple choice question.
Your response MUST include 'Answer: X' where X is A, B, C, or D.
You may explain your reasoning, but 'Answer: X' must be present.
The answer should be a single letter (A, B, C, or D).

Question:
{{query}}
`

// Template is a validated prompt template.
type Template struct {
	text string
}

// Parse validates text, using DefaultTemplate when it is blank.
func Parse(text string) (Template, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}
	if !strings.Contains(text, QueryPlaceholder) {
		return Template{}, fmt.Errorf("prompt template must contain %s", QueryPlaceholder)
	}
	return Template{text: text}, nil
}

// Render substitutes query into the template.
func (t Template) Render(query string) string {
	text := t.text
	if text == "" {
		text = DefaultTemplate
	}
	return strings.ReplaceAll(text, QueryPlaceholder, query)
}
