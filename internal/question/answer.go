package question

import (
	"regexp"
	"strings"
	"unicode"

	"typobench/internal/roster"
)

// Extractor finds the letter each roster model committed to in a response.
type Extractor struct {
	ids      []string
	patterns []*regexp.Regexp
}

// NewExtractor compiles one pattern per roster entry. A pattern matches the
// model's id or display name followed, possibly much later, by
// "answer" and a letter.
func NewExtractor(models roster.Roster) *Extractor {
	extractor := &Extractor{
		ids:      make([]string, 0, len(models)),
		patterns: make([]*regexp.Regexp, 0, len(models)),
	}
	for _, entry := range models {
		extractor.ids = append(extractor.ids, entry.ID)
		extractor.patterns = append(extractor.patterns, answerPattern(entry))
	}
	return extractor
}

// Extract returns a letter per roster id, LetterNone when not found.
func (e *Extractor) Extract(raw string) map[string]Letter {
	answers := make(map[string]Letter, len(e.ids))
	text := NormalizeResponse(raw)
	for i, id := range e.ids {
		answers[id] = LetterNone
		if text == "" || e.patterns[i] == nil {
			continue
		}
		matches := e.patterns[i].FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		letter, _ := ParseLetter(matches[len(matches)-1][1])
		answers[id] = letter
	}
	return answers
}

var replyAnswer = regexp.MustCompile(`answer:?\s*([a-d])\b`)

// ExtractLast returns the last letter stated in a single model's reply.
func ExtractLast(raw string) Letter {
	matches := replyAnswer.FindAllStringSubmatch(NormalizeResponse(raw), -1)
	if len(matches) == 0 {
		return LetterNone
	}
	letter, _ := ParseLetter(matches[len(matches)-1][1])
	return letter
}

// ExtractAnswers is a one-shot Extract.
func ExtractAnswers(raw string, models roster.Roster) map[string]Letter {
	return NewExtractor(models).Extract(raw)
}

func answerPattern(entry roster.Entry) *regexp.Regexp {
	seen := map[string]struct{}{}
	var names []string
	for _, name := range []string{entry.ID, entry.DisplayName} {
		words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
			return r == '-' || r == '_' || unicode.IsSpace(r)
		})
		if len(words) == 0 {
			continue
		}
		for i, word := range words {
			words[i] = regexp.QuoteMeta(word)
		}
		alt := strings.Join(words, `[-_ ]`)
		if _, ok := seen[alt]; ok {
			continue
		}
		seen[alt] = struct{}{}
		names = append(names, alt)
	}
	if len(names) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?s)(?:` + strings.Join(names, "|") + `).*?answer:?\s*([a-d])\b`)
}
