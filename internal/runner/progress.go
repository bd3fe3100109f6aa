package runner

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"typobench/internal/eval"
	"typobench/internal/question"
	"typobench/internal/roster"
)

// ProgressPrinter writes one line per notable event. It is the observer
// used when stdout is not a terminal.
type ProgressPrinter struct {
	out     io.Writer
	palette palette
	// Verbose also prints per-backend completions.
	Verbose bool
}

// NewProgressPrinter returns a printer writing to out. workers is the item
// concurrency of the run; writes are serialized when it exceeds one.
func NewProgressPrinter(out io.Writer, workers int, noColor bool) *ProgressPrinter {
	return &ProgressPrinter{out: wrapWriter(workers, out), palette: paletteFor(out, noColor)}
}

func (p *ProgressPrinter) line(style lineStyle, format string, args ...any) {
	if p == nil || p.out == nil {
		return
	}
	fmt.Fprintln(p.out, p.palette.apply(style, fmt.Sprintf(format, args...)))
}

// OnRunStart implements RunObserver.
func (p *ProgressPrinter) OnRunStart(runID string, models roster.Roster, datasetPath string) {
	names := make([]string, 0, len(models))
	for _, entry := range models {
		names = append(names, entry.Name())
	}
	p.line(styleHeading, "Run %s: %s on %s", runID, strings.Join(names, ", "), datasetPath)
}

// OnBatchStart implements RunObserver.
func (p *ProgressPrinter) OnBatchStart(batchIndex int, items []question.EvalItem) {
	if len(items) == 0 {
		return
	}
	p.line(styleDefault, "%s rows %d..%d", p.palette.dim(fmt.Sprintf("batch %d", batchIndex+1)),
		items[0].RowIdx, items[len(items)-1].RowIdx)
}

// OnItemEvent implements RunObserver.
func (p *ProgressPrinter) OnItemEvent(event ItemEvent) {
	switch event.Type {
	case ItemWaitingRateLimit:
		p.line(styleWarn, "row %d: %s rate limited (%s), retrying in %s", event.RowIdx, event.Backend, event.Variant, event.RetryAfter.Round(10*time.Millisecond))
	case ItemBackendDone:
		if event.Error != "" {
			p.line(styleError, "row %d: %s %s failed: %s", event.RowIdx, event.Backend, event.Variant, event.Error)
		} else if p.Verbose {
			p.line(styleDefault, "row %d: %s %s done", event.RowIdx, event.Backend, event.Variant)
		}
	case ItemDone:
		style := styleDefault
		if event.Original == eval.AllCorrect && event.Perturbed != eval.AllCorrect {
			style = styleWarn
		}
		p.line(style, "row %d: original=%s perturbed=%s changes=%d", event.RowIdx, event.Original, event.Perturbed, event.CharChangeCount)
	case ItemFailed:
		p.line(styleError, "row %d: %s", event.RowIdx, event.Error)
	}
}

// OnBatchPersisted implements RunObserver.
func (p *ProgressPrinter) OnBatchPersisted(batchIndex int, recordsTotal int) {
	p.line(styleDefault, "%s", p.palette.dim(fmt.Sprintf("checkpoint after batch %d: %d records", batchIndex+1, recordsTotal)))
}

// OnRunEnd implements RunObserver.
func (p *ProgressPrinter) OnRunEnd(results Results) {
	if p == nil || p.out == nil {
		return
	}
	WriteSummary(p.out, results, !p.palette.enabled)
}

// WriteSummary prints outcome counts per variant and backend failures.
func WriteSummary(w io.Writer, results Results, noColor bool) {
	pal := paletteFor(w, noColor)
	summary := results.Summary
	fmt.Fprintln(w, pal.apply(styleHeading, fmt.Sprintf("Run %s finished: %d records in %d batches, %d rows skipped",
		results.RunID, summary.Items, summary.Batches, summary.SkippedRows)))
	fmt.Fprintf(w, "  %-15s %9s %9s\n", "outcome", "original", "perturbed")
	for _, outcome := range eval.Outcomes() {
		fmt.Fprintf(w, "  %-15s %9d %9d\n", outcome, summary.Original[outcome], summary.Perturbed[outcome])
	}
	if summary.Regressions > 0 {
		fmt.Fprintln(w, pal.apply(styleWarn, fmt.Sprintf("  %d rows lost ALL_CORRECT after perturbation", summary.Regressions)))
	} else {
		fmt.Fprintln(w, pal.apply(styleGood, "  no rows lost ALL_CORRECT after perturbation"))
	}
	if len(summary.BackendFailures) > 0 {
		ids := make([]string, 0, len(summary.BackendFailures))
		for id := range summary.BackendFailures {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, fmt.Sprintf("%s=%d", id, summary.BackendFailures[id]))
		}
		fmt.Fprintln(w, pal.apply(styleError, "  failed answers: "+strings.Join(parts, " ")))
	}
	if results.OutputPath != "" {
		fmt.Fprintf(w, "  results: %s\n", results.OutputPath)
	}
}
