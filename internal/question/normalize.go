package question

import (
	"regexp"
	"strings"
)

// ParseLetter normalizes value into an answer letter.
func ParseLetter(value string) (Letter, bool) {
	switch letter := Letter(strings.ToUpper(strings.TrimSpace(value))); letter {
	case LetterA, LetterB, LetterC, LetterD:
		return letter, true
	default:
		return LetterNone, false
	}
}

var (
	markupPattern  = regexp.MustCompile(`[*\-•]`)
	newlinePattern = regexp.MustCompile(`[\r\n]+`)
)

// NormalizeResponse lowercases a model response and flattens list markup
// and line breaks into single spaces.
func NormalizeResponse(raw string) string {
	text := strings.ToLower(raw)
	text = markupPattern.ReplaceAllString(text, " ")
	return newlinePattern.ReplaceAllString(text, " ")
}
