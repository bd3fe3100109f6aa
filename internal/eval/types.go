package eval

// Outcome classifies the answers of every model for one prompt variant.
type Outcome string

const (
	AllCorrect   Outcome = "ALL_CORRECT"
	AllIncorrect Outcome = "ALL_INCORRECT"
	MixedResults Outcome = "MIXED_RESULTS"
	NoneAnswered Outcome = "NONE_ANSWERED"
)

// Outcomes lists every outcome in reporting order.
func Outcomes() []Outcome {
	return []Outcome{AllCorrect, AllIncorrect, MixedResults, NoneAnswered}
}

// ModelAnswer is one backend's answer to one variant. Letter is nil when no
// answer was produced; Failed is set for backend errors and missing answers.
type ModelAnswer struct {
	ModelID     string  `json:"model_id"`
	DisplayName string  `json:"display_name"`
	Letter      *string `json:"letter"`
	Failed      bool    `json:"failed"`
	Correct     bool    `json:"correct"`
	Error       string  `json:"error,omitempty"`
}

// VariantResult groups all answers for one variant.
type VariantResult struct {
	ModelAnswers AnswerSet `json:"model_answers"`
	ModelsAgree  bool      `json:"models_agree"`
	Outcome      Outcome   `json:"outcome"`
}
