package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"typobench/internal/question"
	"typobench/internal/roster"
	"typobench/internal/runner"
)

// Controller runs the live UI and implements runner.RunObserver.
type Controller struct {
	events    chan Event
	program   *tea.Program
	done      chan struct{}
	closeOnce sync.Once
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	programOpts := []tea.ProgramOption{tea.WithOutput(stdout), tea.WithAltScreen()}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	return startProgram(events, tea.NewProgram(model, programOpts...))
}

func startProgram(events chan Event, program *tea.Program) *Controller {
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = program.Run()
		close(controller.done)
	}()
	return controller
}

// Close signals the UI to stop.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.events)
	})
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}

// OnRunStart forwards run start events to the UI.
func (c *Controller) OnRunStart(runID string, models roster.Roster, datasetPath string) {
	names := make([]string, 0, len(models))
	for _, entry := range models {
		names = append(names, entry.Name())
	}
	c.send(Event{Kind: EventRunStart, RunID: runID, Dataset: datasetPath, Models: names})
}

// OnBatchStart forwards batch boundaries to the UI.
func (c *Controller) OnBatchStart(batchIndex int, items []question.EvalItem) {
	c.send(Event{Kind: EventBatchStart, BatchIndex: batchIndex, BatchSize: len(items)})
}

// OnItemEvent forwards item status updates to the UI.
func (c *Controller) OnItemEvent(event runner.ItemEvent) {
	c.send(Event{Kind: EventItem, Item: event})
}

// OnBatchPersisted forwards checkpoint events to the UI.
func (c *Controller) OnBatchPersisted(batchIndex int, recordsTotal int) {
	c.send(Event{Kind: EventBatchPersisted, BatchIndex: batchIndex, RecordsTotal: recordsTotal})
}

// OnRunEnd forwards run completion events to the UI and closes it.
func (c *Controller) OnRunEnd(results runner.Results) {
	c.send(Event{Kind: EventRunEnd})
	c.Close()
}

// send enqueues an event without blocking the caller.
func (c *Controller) send(event Event) {
	if c == nil {
		return
	}
	select {
	case c.events <- event:
	default:
	}
}

var _ runner.RunObserver = (*Controller)(nil)
