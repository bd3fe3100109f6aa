package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	elapsed := ""
	if !state.StartedAt.IsZero() {
		elapsed = now.Sub(state.StartedAt).Round(100 * time.Millisecond).String()
	}
	line := "Run " + state.RunID
	if state.Dataset != "" {
		line += " | Dataset: " + state.Dataset
	}
	if elapsed != "" {
		line += " | Elapsed: " + elapsed
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + strconv.Itoa(counts.Queued) +
		" Waiting: " + strconv.Itoa(counts.Waiting) +
		" Running: " + strconv.Itoa(counts.Running) +
		" Done: " + strconv.Itoa(counts.Done) +
		" Stopped: " + strconv.Itoa(counts.Failed) +
		" | Rows: " + strconv.Itoa(state.Totals.Completed) +
		" Saved: " + strconv.Itoa(state.Totals.Persisted) +
		" Regressions: " + strconv.Itoa(state.Totals.Regressions) +
		" Retries: " + strconv.Itoa(state.Totals.Retries)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderBatchLine renders the current batch and roster.
func renderBatchLine(state State, noColor bool) string {
	if len(state.Models) == 0 {
		return ""
	}
	line := "Batch " + strconv.Itoa(state.Batch+1) + " | Models: " + strings.Join(state.Models, ", ")
	return stylize(line, noColor, lipgloss.Color("240"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
