package question

// EvalItem is one multiple-choice question from the dataset.
type EvalItem struct {
	RowIdx   int
	Query    string
	Expected Letter
}

// Letter is a multiple-choice answer. LetterNone marks a missing answer.
type Letter string

const (
	LetterNone Letter = ""
	LetterA    Letter = "A"
	LetterB    Letter = "B"
	LetterC    Letter = "C"
	LetterD    Letter = "D"
)

// String returns the letter, or "none".
func (l Letter) String() string {
	if l == LetterNone {
		return "none"
	}
	return string(l)
}

// Stats summarizes what a stream has read so far.
type Stats struct {
	Emitted int
	Skipped int
	// Errors holds the first recorded row errors, capped by StreamOptions.
	Errors []error
}
