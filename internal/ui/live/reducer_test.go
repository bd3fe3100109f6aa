package live

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"typobench/internal/eval"
	"typobench/internal/runner"
	"typobench/internal/testutil"
)

// TestReduceItemLifecycle verifies core status transitions are recorded.
func TestReduceItemLifecycle(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		start := time.Now()
		state := State{Models: []string{"openai", "groq"}}
		state = Reduce(state, event(0, runner.ItemQueued, start))
		running := event(0, runner.ItemRunning, start)
		running.CharChangeCount = 3
		state = Reduce(state, running)
		for i := 0; i < 4; i++ {
			state = Reduce(state, event(0, runner.ItemBackendDone, start))
		}
		done := event(0, runner.ItemDone, start.Add(150*time.Millisecond))
		done.Original = eval.AllCorrect
		done.Perturbed = eval.MixedResults
		done.CharChangeCount = 3
		state = Reduce(state, done)

		row := state.Rows[0]
		if row.Status != runner.ItemDone {
			t.Fatalf("expected done status, got %s", row.Status)
		}
		if row.CallsDone != 4 || row.CharChanges != 3 {
			t.Fatalf("unexpected row %+v", row)
		}
		if state.Counts.Done != 1 || state.Totals.Completed != 1 || state.Totals.Regressions != 1 {
			t.Fatalf("unexpected counts %+v totals %+v", state.Counts, state.Totals)
		}
		if !strings.Contains(state.LastEvent, "ALL_CORRECT -> MIXED_RESULTS") {
			t.Fatalf("unexpected last event %q", state.LastEvent)
		}
	})
}

// TestReduceWaitingTracksRetries verifies rate limit waits and their release.
func TestReduceWaitingTracksRetries(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		state := State{}
		state = Reduce(state, event(0, runner.ItemRunning, time.Now()))
		wait := event(0, runner.ItemWaitingRateLimit, time.Now())
		wait.Backend = "groq"
		wait.RetryAfter = 1500 * time.Millisecond
		state = Reduce(state, wait)
		state = Reduce(state, wait)
		row := state.Rows[0]
		if row.RetryCount != 2 || row.WaitingOn != "groq" {
			t.Fatalf("unexpected row %+v", row)
		}
		if state.Counts.Waiting != 1 || state.Totals.Retries != 2 {
			t.Fatalf("unexpected counts %+v totals %+v", state.Counts, state.Totals)
		}
		if !strings.Contains(state.LastEvent, "retry in 1.5s") {
			t.Fatalf("unexpected last event %q", state.LastEvent)
		}

		other := event(0, runner.ItemBackendDone, time.Now())
		other.Backend = "openai"
		state = Reduce(state, other)
		if state.Rows[0].Status != runner.ItemWaitingRateLimit {
			t.Fatalf("expected other backend not to release the wait")
		}
		released := event(0, runner.ItemBackendDone, time.Now())
		released.Backend = "groq"
		state = Reduce(state, released)
		if state.Rows[0].Status != runner.ItemRunning || state.Counts.Running != 1 {
			t.Fatalf("expected row back to running, got %+v", state.Rows[0])
		}
	})
}

// TestReduceFailures verifies backend and item failures are surfaced.
func TestReduceFailures(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		state := State{}
		failed := event(0, runner.ItemBackendDone, time.Now())
		failed.Backend = "groq"
		failed.Variant = runner.VariantPerturbed
		failed.Error = "status 500"
		state = Reduce(state, failed)
		if state.Rows[0].CallsFailed != 1 || state.Rows[0].Error != "groq: status 500" {
			t.Fatalf("unexpected row %+v", state.Rows[0])
		}
		state = Reduce(state, event(1, runner.ItemFailed, time.Now()))
		if len(state.Rows) != 2 || state.Counts.Failed != 1 {
			t.Fatalf("expected second row failed, got %+v", state.Counts)
		}
	})
}

func TestRowsForStateFormatsCells(t *testing.T) {
	state := State{Models: []string{"a"}}
	state = Reduce(state, event(4, runner.ItemRunning, time.Now()))
	state = Reduce(state, event(4, runner.ItemBackendDone, time.Now()))
	rows := rowsForState(state, time.Now(), 40, true)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0][0] != "#4" || rows[0][2] != "running 1/2" {
		t.Fatalf("unexpected cells %v", rows[0])
	}
	if got := formatQuestionText("one two   three four", 10); got != "one two..." {
		t.Fatalf("unexpected truncation %q", got)
	}
}

// TestColumnsForWidthKeepsMinimumText verifies narrow terminals still show questions.
func TestColumnsForWidthKeepsMinimumText(t *testing.T) {
	columns := columnsForWidth(20)
	if columns[1].Title != "Question" || columns[1].Width != minTextWidth {
		t.Fatalf("unexpected question column %+v", columns[1])
	}
	wide := columnsForWidth(200)
	if wide[1].Width <= minTextWidth {
		t.Fatalf("expected wide question column, got %d", wide[1].Width)
	}
}

// TestApplyEventResetsRowsPerBatch verifies batch starts clear the table.
func TestApplyEventResetsRowsPerBatch(t *testing.T) {
	model := NewModel(nil, Options{NoColor: true})
	model = applyEvent(model, Event{Kind: EventRunStart, RunID: "run-1", Dataset: "eval.json", Models: []string{"a", "b"}})
	model = applyEvent(model, Event{Kind: EventBatchStart, BatchIndex: 0, BatchSize: 2})
	model = applyEvent(model, Event{Kind: EventItem, Item: event(0, runner.ItemQueued, time.Now())})
	model = applyEvent(model, Event{Kind: EventBatchPersisted, BatchIndex: 0, RecordsTotal: 1})
	if len(model.state.Rows) != 1 || model.state.Totals.Persisted != 1 {
		t.Fatalf("unexpected state %+v", model.state)
	}
	model = applyEvent(model, Event{Kind: EventBatchStart, BatchIndex: 1, BatchSize: 2})
	if len(model.state.Rows) != 0 || model.state.Batch != 1 {
		t.Fatalf("expected rows reset, got %+v", model.state)
	}
	view := model.View()
	for _, want := range []string{"Run run-1", "Batch 2", "checkpoint after batch 1: 1 records"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

// TestCtrlCRequestsInterrupt verifies ctrl+c cancels the run without quitting the UI.
func TestCtrlCRequestsInterrupt(t *testing.T) {
	interrupted := 0
	model := NewModel(nil, Options{NoColor: true, OnInterrupt: func() { interrupted++ }})
	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if interrupted != 1 {
		t.Fatalf("expected interrupt callback, got %d calls", interrupted)
	}
	if cmd != nil {
		t.Fatalf("expected the ui to keep running")
	}
	if !strings.Contains(updated.(Model).state.LastEvent, "interrupt requested") {
		t.Fatalf("unexpected footer %q", updated.(Model).state.LastEvent)
	}
}

// TestControllerStopsOnRunEnd verifies the program exits once the run ends.
func TestControllerStopsOnRunEnd(t *testing.T) {
	var out strings.Builder
	controller := Start(&out, Options{NoColor: true, Input: strings.NewReader("")})
	controller.OnRunStart("run-1", nil, "eval.json")
	controller.OnBatchStart(0, nil)
	controller.OnItemEvent(event(0, runner.ItemQueued, time.Now()))
	controller.OnRunEnd(runner.Results{})
	done := make(chan struct{})
	go func() {
		controller.Wait()
		close(done)
	}()
	testutil.WaitClosed(t, done, 2*time.Second, "live ui to exit")
	// Close after OnRunEnd is a no-op.
	controller.Close()
}

// event builds an ItemEvent for testing.
func event(rowIdx int, kind runner.ItemEventType, when time.Time) runner.ItemEvent {
	return runner.ItemEvent{
		RowIdx:    rowIdx,
		Query:     "Question",
		Type:      kind,
		EmittedAt: when,
	}
}

// runWithTimeout executes a test body with a timeout.
func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timed out")
	}
}
