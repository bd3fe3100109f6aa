package runner

import (
	"time"

	"typobench/internal/eval"
	"typobench/internal/perturb"
	"typobench/internal/question"
	"typobench/internal/roster"
)

// ComparisonRecord is the persisted result for one dataset row.
type ComparisonRecord struct {
	Timestamp           time.Time     `json:"timestamp"`
	RowIdx              int           `json:"row_idx"`
	OriginalText        string        `json:"original_text"`
	PerturbedText       string        `json:"perturbed_text"`
	ExpectedAnswer      string        `json:"expected_answer"`
	CharChangeCount     int           `json:"char_change_count"`
	Severity            string        `json:"severity"`
	SeverityProbability float64       `json:"severity_probability"`
	Strategy            string        `json:"strategy"`
	Seed                int64         `json:"seed"`
	Results             RecordResults `json:"results"`
}

// RecordResults holds both variant results of a record.
type RecordResults struct {
	Original  eval.VariantResult `json:"original"`
	Perturbed eval.VariantResult `json:"perturbed"`
}

// RecordInput carries everything BuildRecord needs.
type RecordInput struct {
	Item      question.EvalItem
	Variant   perturb.Variant
	Roster    roster.Roster
	Original  map[string]eval.Response
	Perturbed map[string]eval.Response
	Timestamp time.Time
}

// BuildRecord assembles a record. Both variants report every roster entry
// in roster order.
func BuildRecord(input RecordInput) ComparisonRecord {
	return ComparisonRecord{
		Timestamp:           input.Timestamp.UTC(),
		RowIdx:              input.Item.RowIdx,
		OriginalText:        input.Item.Query,
		PerturbedText:       input.Variant.Text,
		ExpectedAnswer:      string(input.Item.Expected),
		CharChangeCount:     input.Variant.CharChangeCount,
		Severity:            input.Variant.Severity.Label(),
		SeverityProbability: input.Variant.Severity.Probability(),
		Strategy:            string(input.Variant.Strategy),
		Seed:                input.Variant.Seed,
		Results: RecordResults{
			Original:  eval.BuildVariantResult(input.Roster, input.Original, input.Item.Expected),
			Perturbed: eval.BuildVariantResult(input.Roster, input.Perturbed, input.Item.Expected),
		},
	}
}
