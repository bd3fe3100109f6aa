package runner

import (
	"time"

	"typobench/internal/eval"
	"typobench/internal/question"
	"typobench/internal/roster"
)

// ItemEventType identifies an item status update for observers.
type ItemEventType string

const (
	// ItemQueued marks an item read from the dataset but not started.
	ItemQueued ItemEventType = "queued"
	// ItemRunning marks an item whose backend calls are in flight.
	ItemRunning ItemEventType = "running"
	// ItemWaitingRateLimit marks a backend call waiting before a retry.
	ItemWaitingRateLimit ItemEventType = "waiting_rate_limit"
	// ItemBackendDone marks one backend call finishing.
	ItemBackendDone ItemEventType = "backend_done"
	// ItemDone marks a finished record.
	ItemDone ItemEventType = "done"
	// ItemFailed marks an item abandoned because the run stopped.
	ItemFailed ItemEventType = "failed"
)

// ItemEvent carries a single status update for an item.
type ItemEvent struct {
	BatchIndex      int
	RowIdx          int
	Query           string
	Type            ItemEventType
	Backend         string
	Variant         string
	RetryAfter      time.Duration
	CharChangeCount int
	Original        eval.Outcome
	Perturbed       eval.Outcome
	Error           string
	EmittedAt       time.Time
}

// RunObserver receives run lifecycle events for UI or logging. Item events
// may arrive from several goroutines.
type RunObserver interface {
	// OnRunStart signals the start of a run.
	OnRunStart(runID string, models roster.Roster, datasetPath string)
	// OnBatchStart signals a batch read from the dataset.
	OnBatchStart(batchIndex int, items []question.EvalItem)
	// OnItemEvent delivers an item status update.
	OnItemEvent(event ItemEvent)
	// OnBatchPersisted signals a checkpoint written with recordsTotal records.
	OnBatchPersisted(batchIndex int, recordsTotal int)
	// OnRunEnd signals run completion.
	OnRunEnd(results Results)
}

// itemEmitter stamps and forwards events for one item.
type itemEmitter struct {
	observer   RunObserver
	batchIndex int
	item       question.EvalItem
}

func (e itemEmitter) emit(event ItemEvent) {
	if e.observer == nil {
		return
	}
	event.BatchIndex = e.batchIndex
	event.RowIdx = e.item.RowIdx
	event.Query = e.item.Query
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}
	e.observer.OnItemEvent(event)
}
