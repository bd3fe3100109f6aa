package runner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"typobench/internal/backend"
	"typobench/internal/eval"
	"typobench/internal/metrics"
	"typobench/internal/prompt"
	"typobench/internal/question"
	"typobench/internal/ratelimit"
	"typobench/internal/roster"
)

// dispatcher sends both variants of an item to every backend.
type dispatcher struct {
	models   roster.Roster
	backends []backend.Backend
	template prompt.Template
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

func newDispatcher(models roster.Roster, backends []backend.Backend, template prompt.Template, recorder *metrics.Recorder, logger *slog.Logger) *dispatcher {
	return &dispatcher{
		models:   models,
		backends: backends,
		template: template,
		metrics:  recorder,
		logger:   logger,
	}
}

// dispatch runs the 2×N calls of an item concurrently. Every slot is filled
// before it returns; a failing call only affects its own slot.
func (d *dispatcher) dispatch(ctx context.Context, emitter itemEmitter, original, perturbed string) (map[string]eval.Response, map[string]eval.Response) {
	prompts := [2]string{d.template.Render(original), d.template.Render(perturbed)}
	variants := [2]string{VariantOriginal, VariantPerturbed}
	var slots [2][]eval.Response
	for v := range slots {
		slots[v] = make([]eval.Response, len(d.backends))
	}

	var group errgroup.Group
	for v := range variants {
		for i := range d.backends {
			group.Go(func() error {
				callCtx := withCallInfo(ctx, callInfo{emitter: emitter, variant: variants[v]})
				slots[v][i] = d.call(callCtx, emitter, variants[v], i, prompts[v])
				return nil
			})
		}
	}
	_ = group.Wait()

	return d.collect(slots[0]), d.collect(slots[1])
}

func (d *dispatcher) call(ctx context.Context, emitter itemEmitter, variant string, index int, text string) eval.Response {
	target := d.backends[index]
	entry := d.models[index]
	started := time.Now()
	raw, err := target.Complete(ctx, text)
	elapsed := time.Since(started)

	event := ItemEvent{Type: ItemBackendDone, Backend: entry.ID, Variant: variant}
	if err != nil {
		d.metrics.ObserveCall(entry.ID, variant, metrics.ResultError, elapsed)
		d.logger.Warn("backend call failed", "row_idx", emitter.item.RowIdx, "backend", entry.ID, "variant", variant, "error", err)
		event.Error = err.Error()
		emitter.emit(event)
		return eval.Response{Err: err}
	}

	letter := question.ExtractLast(raw)
	result := metrics.ResultAnswered
	if letter == question.LetterNone {
		result = metrics.ResultNoAnswer
	}
	d.metrics.ObserveCall(entry.ID, variant, result, elapsed)
	d.logger.Debug("backend answered", "row_idx", emitter.item.RowIdx, "backend", entry.ID, "variant", variant, "letter", letter.String(), "elapsed", elapsed)
	emitter.emit(event)
	return eval.Response{Letter: letter}
}

func (d *dispatcher) collect(slots []eval.Response) map[string]eval.Response {
	responses := make(map[string]eval.Response, len(slots))
	for i, entry := range d.models {
		responses[entry.ID] = slots[i]
	}
	return responses
}

type callInfoKey struct{}

// callInfo ties a backend call to the item and variant it serves.
type callInfo struct {
	emitter itemEmitter
	variant string
}

func withCallInfo(ctx context.Context, info callInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

func callInfoFrom(ctx context.Context) (callInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(callInfo)
	return info, ok
}

// retryHook reports scheduled retries to observers and metrics.
func retryHook(recorder *metrics.Recorder) func(ctx context.Context, event ratelimit.RetryEvent) {
	return func(ctx context.Context, event ratelimit.RetryEvent) {
		recorder.ObserveRetry(event.Backend)
		info, ok := callInfoFrom(ctx)
		if !ok {
			return
		}
		info.emitter.emit(ItemEvent{
			Type:       ItemWaitingRateLimit,
			Backend:    event.Backend,
			Variant:    info.variant,
			RetryAfter: event.Wait,
		})
	}
}
