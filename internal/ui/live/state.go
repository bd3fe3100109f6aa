package live

import (
	"time"

	"typobench/internal/eval"
	"typobench/internal/runner"
)

// ItemRow holds UI state for a single dataset row.
type ItemRow struct {
	RowIdx      int
	Text        string
	Status      runner.ItemEventType
	CallsDone   int
	CallsFailed int
	RetryCount  int
	RetryAfter  time.Duration
	WaitingOn   string
	CharChanges int
	Original    eval.Outcome
	Perturbed   eval.Outcome
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// StatusCounts aggregates counts by status bucket for the current batch.
type StatusCounts struct {
	Queued  int
	Waiting int
	Running int
	Done    int
	Failed  int
}

// Totals accumulate across batches.
type Totals struct {
	Completed   int
	Persisted   int
	Regressions int
	Retries     int
}

// State captures the live UI state for a run.
type State struct {
	RunID     string
	Dataset   string
	Models    []string
	Batch     int
	StartedAt time.Time
	LastEvent string
	Rows      []ItemRow
	Counts    StatusCounts
	Totals    Totals
}

// callsPerItem is the number of backend calls behind one row.
func (s State) callsPerItem() int {
	return 2 * len(s.Models)
}
