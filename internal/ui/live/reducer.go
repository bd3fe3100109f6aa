package live

import (
	"fmt"
	"time"

	"typobench/internal/eval"
	"typobench/internal/runner"
)

// Reduce applies an item event to the UI state.
func Reduce(state State, event runner.ItemEvent) State {
	state, index := ensureRow(state, event)
	state = applyItemEvent(state, index, event)
	state.Counts = recount(state.Rows)
	if message := formatLastEvent(event); message != "" {
		state.LastEvent = message
	}
	return state
}

// ensureRow finds the row for the event, appending it when new.
func ensureRow(state State, event runner.ItemEvent) (State, int) {
	for i := len(state.Rows) - 1; i >= 0; i-- {
		if state.Rows[i].RowIdx == event.RowIdx {
			return state, i
		}
	}
	rows := make([]ItemRow, len(state.Rows), len(state.Rows)+1)
	copy(rows, state.Rows)
	state.Rows = append(rows, ItemRow{RowIdx: event.RowIdx, Text: event.Query, Status: runner.ItemQueued})
	return state, len(state.Rows) - 1
}

// applyItemEvent updates a row with the given event.
func applyItemEvent(state State, index int, event runner.ItemEvent) State {
	row := state.Rows[index]
	if row.Text == "" {
		row.Text = event.Query
	}
	switch event.Type {
	case runner.ItemQueued:
		row.Status = runner.ItemQueued
	case runner.ItemRunning:
		row.Status = runner.ItemRunning
		row.CharChanges = event.CharChangeCount
		if row.StartedAt.IsZero() {
			row.StartedAt = event.EmittedAt
		}
	case runner.ItemWaitingRateLimit:
		row.Status = runner.ItemWaitingRateLimit
		row.RetryCount++
		row.RetryAfter = event.RetryAfter
		row.WaitingOn = event.Backend
		state.Totals.Retries++
	case runner.ItemBackendDone:
		row.CallsDone++
		if event.Error != "" {
			row.CallsFailed++
			row.Error = event.Backend + ": " + event.Error
		}
		if row.Status == runner.ItemWaitingRateLimit && row.WaitingOn == event.Backend {
			row.Status = runner.ItemRunning
			row.WaitingOn = ""
			row.RetryAfter = 0
		}
	case runner.ItemDone:
		row.Status = runner.ItemDone
		row.Original = event.Original
		row.Perturbed = event.Perturbed
		row.CharChanges = event.CharChangeCount
		row.FinishedAt = event.EmittedAt
		row.WaitingOn = ""
		state.Totals.Completed++
		if event.Original == eval.AllCorrect && event.Perturbed != eval.AllCorrect {
			state.Totals.Regressions++
		}
	case runner.ItemFailed:
		row.Status = runner.ItemFailed
		row.Error = event.Error
		row.FinishedAt = event.EmittedAt
	}
	state.Rows[index] = row
	return state
}

// recount recomputes status counts for the current rows.
func recount(rows []ItemRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case runner.ItemQueued:
			counts.Queued++
		case runner.ItemWaitingRateLimit:
			counts.Waiting++
		case runner.ItemRunning:
			counts.Running++
		case runner.ItemDone:
			counts.Done++
		case runner.ItemFailed:
			counts.Failed++
		}
	}
	return counts
}

// formatLastEvent creates a short footer message for the event.
func formatLastEvent(event runner.ItemEvent) string {
	switch event.Type {
	case runner.ItemWaitingRateLimit:
		if event.RetryAfter > 0 {
			return fmt.Sprintf("row %d: %s rate limited (retry in %s)", event.RowIdx, event.Backend, formatDuration(event.RetryAfter))
		}
		return fmt.Sprintf("row %d: %s rate limited", event.RowIdx, event.Backend)
	case runner.ItemBackendDone:
		if event.Error != "" {
			return fmt.Sprintf("row %d: %s %s failed (%s)", event.RowIdx, event.Backend, event.Variant, event.Error)
		}
		return ""
	case runner.ItemDone:
		return fmt.Sprintf("row %d: %s -> %s", event.RowIdx, event.Original, event.Perturbed)
	case runner.ItemFailed:
		return fmt.Sprintf("row %d: %s", event.RowIdx, event.Error)
	}
	return ""
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}
