package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"typobench/internal/eval"
	"typobench/internal/runner"
)

// formatRowIdx returns the display id for a dataset row.
func formatRowIdx(row ItemRow) string {
	return "#" + strconv.Itoa(row.RowIdx)
}

// formatQuestionText truncates question text for display.
func formatQuestionText(text string, limit int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if limit <= 3 || len(normalized) <= limit {
		return normalized
	}
	return normalized[:limit-3] + "..."
}

// formatStatus renders the status cell for a row.
func formatStatus(row ItemRow, callsPerItem int, noColor bool) string {
	text := statusLabel(row, callsPerItem)
	if noColor {
		return text
	}
	return statusStyle(row.Status).Render(text)
}

func statusLabel(row ItemRow, callsPerItem int) string {
	switch row.Status {
	case runner.ItemWaitingRateLimit:
		label := "waiting " + row.WaitingOn
		if row.RetryAfter > 0 {
			label += " (" + formatDuration(row.RetryAfter) + ")"
		}
		return label
	case runner.ItemRunning:
		if callsPerItem > 0 {
			return "running " + strconv.Itoa(row.CallsDone) + "/" + strconv.Itoa(callsPerItem)
		}
		return "running"
	case runner.ItemDone:
		if row.CallsFailed > 0 {
			return "done (" + strconv.Itoa(row.CallsFailed) + " failed)"
		}
		return "done"
	case runner.ItemFailed:
		return "stopped"
	default:
		return string(row.Status)
	}
}

// formatOutcome shortens an outcome for the table.
func formatOutcome(outcome eval.Outcome) string {
	switch outcome {
	case eval.AllCorrect:
		return "all correct"
	case eval.AllIncorrect:
		return "all wrong"
	case eval.MixedResults:
		return "mixed"
	case eval.NoneAnswered:
		return "none"
	default:
		return ""
	}
}

// formatRowDuration returns elapsed or total time for a row.
func formatRowDuration(row ItemRow, now time.Time) string {
	if !row.FinishedAt.IsZero() && !row.StartedAt.IsZero() {
		return row.FinishedAt.Sub(row.StartedAt).Round(100 * time.Millisecond).String()
	}
	if !row.StartedAt.IsZero() {
		return now.Sub(row.StartedAt).Round(100 * time.Millisecond).String()
	}
	return ""
}

// formatCount renders positive counts and blanks zero.
func formatCount(value int) string {
	if value <= 0 {
		return ""
	}
	return strconv.Itoa(value)
}

// statusStyle selects a style for a given status.
func statusStyle(status runner.ItemEventType) lipgloss.Style {
	color := lipgloss.Color("244")
	switch status {
	case runner.ItemDone:
		color = lipgloss.Color("42")
	case runner.ItemFailed:
		color = lipgloss.Color("196")
	case runner.ItemWaitingRateLimit:
		color = lipgloss.Color("39")
	case runner.ItemRunning:
		color = lipgloss.Color("33")
	case runner.ItemQueued:
		color = lipgloss.Color("246")
	}
	return lipgloss.NewStyle().Foreground(color)
}

// outcomeStyle highlights rows that lost ALL_CORRECT.
func outcomeStyle(row ItemRow, noColor bool, text string) string {
	if noColor || text == "" {
		return text
	}
	if row.Original == eval.AllCorrect && row.Perturbed != eval.AllCorrect {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render(text)
	}
	return text
}
