package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	colRow       = 7
	colStatus    = 24
	colOutcome   = 12
	colChanges   = 8
	colRetries   = 8
	colElapsed   = 8
	minTextWidth = 20
)

// defaultColumns returns the columns used before the window size is known.
func defaultColumns() []table.Column {
	return columnsForWidth(120)
}

// columnsForWidth gives the question column whatever width remains.
func columnsForWidth(width int) []table.Column {
	fixed := colRow + colStatus + 2*colOutcome + colChanges + colRetries + colElapsed
	text := max(width-fixed-16, minTextWidth)
	return []table.Column{
		{Title: "Row", Width: colRow},
		{Title: "Question", Width: text},
		{Title: "Status", Width: colStatus},
		{Title: "Original", Width: colOutcome},
		{Title: "Perturbed", Width: colOutcome},
		{Title: "Changes", Width: colChanges},
		{Title: "Retries", Width: colRetries},
		{Title: "Time", Width: colElapsed},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, textWidth int, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatRowIdx(row),
			formatQuestionText(row.Text, textWidth),
			formatStatus(row, state.callsPerItem(), noColor),
			formatOutcome(row.Original),
			outcomeStyle(row, noColor, formatOutcome(row.Perturbed)),
			formatCount(row.CharChanges),
			formatCount(row.RetryCount),
			formatRowDuration(row, now),
		})
	}
	return rows
}
