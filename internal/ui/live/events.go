package live

import "typobench/internal/runner"

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals the start of a run.
	EventRunStart EventKind = iota
	// EventBatchStart signals a new batch of rows.
	EventBatchStart
	// EventItem delivers an item status update.
	EventItem
	// EventBatchPersisted signals a written checkpoint.
	EventBatchPersisted
	// EventRunEnd signals run completion.
	EventRunEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind         EventKind
	RunID        string
	Dataset      string
	Models       []string
	BatchIndex   int
	BatchSize    int
	RecordsTotal int
	Item         runner.ItemEvent
}
