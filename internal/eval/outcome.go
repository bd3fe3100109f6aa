package eval

import (
	"typobench/internal/question"
	"typobench/internal/roster"
)

// Classify derives the outcome from extracted letters. Models that gave no
// answer are ignored unless nobody answered.
func Classify(answers []question.Letter, expected question.Letter) Outcome {
	answered, correct := 0, 0
	for _, letter := range answers {
		if letter == question.LetterNone {
			continue
		}
		answered++
		if letter == expected {
			correct++
		}
	}
	switch {
	case answered == 0:
		return NoneAnswered
	case correct == answered:
		return AllCorrect
	case correct == 0:
		return AllIncorrect
	default:
		return MixedResults
	}
}

// ModelsAgree reports whether exactly one distinct letter was given.
func ModelsAgree(answers []question.Letter) bool {
	distinct := map[question.Letter]struct{}{}
	for _, letter := range answers {
		if letter != question.LetterNone {
			distinct[letter] = struct{}{}
		}
	}
	return len(distinct) == 1
}

// Response is what one backend returned for a variant.
type Response struct {
	Letter question.Letter
	Err    error
}

// BuildVariantResult assembles answers in roster order. Backends missing
// from responses are reported as failed.
func BuildVariantResult(models roster.Roster, responses map[string]Response, expected question.Letter) VariantResult {
	answers := make(AnswerSet, 0, len(models))
	letters := make([]question.Letter, 0, len(models))
	for _, entry := range models {
		response, ok := responses[entry.ID]
		answer := ModelAnswer{ModelID: entry.ID, DisplayName: entry.Name()}
		switch {
		case !ok:
			answer.Failed = true
			answer.Error = "no response"
		case response.Err != nil:
			answer.Failed = true
			answer.Error = response.Err.Error()
		case response.Letter == question.LetterNone:
			answer.Failed = true
		default:
			letter := string(response.Letter)
			answer.Letter = &letter
			answer.Correct = response.Letter == expected
		}
		if answer.Failed {
			letters = append(letters, question.LetterNone)
		} else {
			letters = append(letters, response.Letter)
		}
		answers = append(answers, answer)
	}
	return VariantResult{
		ModelAnswers: answers,
		ModelsAgree:  ModelsAgree(letters),
		Outcome:      Classify(letters, expected),
	}
}
