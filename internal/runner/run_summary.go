package runner

import (
	"typobench/internal/eval"
	"typobench/internal/question"
)

// OutcomeCounts counts records per outcome for one variant.
type OutcomeCounts map[eval.Outcome]int

// Total returns the number of classified records.
func (c OutcomeCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// RunSummary aggregates a run for reporting.
type RunSummary struct {
	Items       int
	Batches     int
	SkippedRows int
	Original    OutcomeCounts
	Perturbed   OutcomeCounts
	// Regressions counts rows answered correctly by every model before
	// perturbation but not after.
	Regressions int
	// BackendFailures counts failed answers per backend id across both variants.
	BackendFailures map[string]int
}

// summarize aggregates records and dataset stats into a summary.
func summarize(records []ComparisonRecord, batches int, stats question.Stats) RunSummary {
	summary := RunSummary{
		Items:           len(records),
		Batches:         batches,
		SkippedRows:     stats.Skipped,
		Original:        OutcomeCounts{},
		Perturbed:       OutcomeCounts{},
		BackendFailures: map[string]int{},
	}
	for _, record := range records {
		original := record.Results.Original
		perturbed := record.Results.Perturbed
		summary.Original[original.Outcome]++
		summary.Perturbed[perturbed.Outcome]++
		if original.Outcome == eval.AllCorrect && perturbed.Outcome != eval.AllCorrect {
			summary.Regressions++
		}
		for _, variant := range []eval.VariantResult{original, perturbed} {
			for _, answer := range variant.ModelAnswers {
				if answer.Failed {
					summary.BackendFailures[answer.ModelID]++
				}
			}
		}
	}
	return summary
}

// limitOrDefault returns the limit when set, otherwise the fallback.
func limitOrDefault(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}
