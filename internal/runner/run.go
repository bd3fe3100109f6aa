package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"typobench/internal/backend"
	"typobench/internal/perturb"
	"typobench/internal/prompt"
	"typobench/internal/question"
	"typobench/internal/ratelimit"
	"typobench/internal/roster"
	"typobench/internal/spec"
)

// Run evaluates the dataset against every roster backend and checkpoints
// the result file after each batch. Backend failures are recorded on the
// affected answers; only setup, dataset and sink errors are returned.
func Run(ctx context.Context, cfg spec.Config, params RunParams) (Results, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := params.Deps.Now
	if now == nil {
		now = time.Now
	}
	runID, err := ensureRunID(params.Deps.RunID)
	if err != nil {
		return Results{}, err
	}

	setup, err := prepareRun(cfg, params, logger)
	if err != nil {
		return Results{}, err
	}
	outputPath := params.OutputPath
	if strings.TrimSpace(outputPath) == "" {
		outputPath = cfg.OutputPath
	}
	sink := FileSink{Path: outputPath}

	stream, err := question.OpenStream(cfg.DatasetPath, question.StreamOptions{
		BatchSize:  cfg.BatchSize,
		TotalLimit: limitOrDefault(params.Limit, cfg.TotalItemLimit),
		RowsField:  cfg.RowsField,
	})
	if err != nil {
		return Results{}, err
	}
	defer stream.Close()

	startedAt := now()
	logger.Info("run started", "run_id", runID, "dataset", cfg.DatasetPath, "backends", len(setup.models),
		"severity", setup.severity.String(), "strategy", string(setup.generator.Strategy()))
	if params.Observer != nil {
		params.Observer.OnRunStart(runID, setup.models, cfg.DatasetPath)
	}

	driver := batchDriver{
		cfg:        cfg,
		setup:      setup,
		dispatcher: newDispatcher(setup.models, setup.backends, setup.template, params.Metrics, logger),
		params:     params,
		logger:     logger,
		now:        now,
	}

	records := make([]ComparisonRecord, 0)
	batches := 0
	skipped := 0
	for {
		items, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Results{}, fmt.Errorf("read dataset: %w", err)
		}
		if stats := stream.Stats(); stats.Skipped > skipped {
			params.Metrics.AddSkippedRows(stats.Skipped - skipped)
			logger.Warn("skipped malformed rows", "count", stats.Skipped-skipped)
			skipped = stats.Skipped
		}

		batchStarted := time.Now()
		batch, err := driver.runBatch(ctx, batches, items)
		if err != nil {
			return Results{}, err
		}
		records = append(records, batch...)
		if err := sink.Persist(records); err != nil {
			return Results{}, fmt.Errorf("persist batch %d: %w", batches, err)
		}
		for _, extra := range params.Sinks {
			if err := extra.PersistBatch(ctx, runID, batch); err != nil {
				return Results{}, fmt.Errorf("persist batch %d: %w", batches, err)
			}
		}
		params.Metrics.ObserveBatch(len(batch), time.Since(batchStarted))
		logger.Info("batch persisted", "batch", batches, "records", len(records), "path", outputPath)
		if params.Observer != nil {
			params.Observer.OnBatchPersisted(batches, len(records))
		}
		batches++
	}

	stats := stream.Stats()
	if skipped < stats.Skipped {
		params.Metrics.AddSkippedRows(stats.Skipped - skipped)
	}
	if batches == 0 {
		if err := sink.Persist(records); err != nil {
			return Results{}, err
		}
	}
	for _, rowErr := range stats.Errors {
		logger.Debug("dataset row skipped", "error", rowErr)
	}

	results := Results{
		RunID:      runID,
		StartedAt:  startedAt,
		FinishedAt: now(),
		Roster:     setup.models,
		OutputPath: outputPath,
		Records:    records,
		Dataset:    stats,
		Summary:    summarize(records, batches, stats),
	}
	logger.Info("run finished", "run_id", runID, "records", len(records), "skipped", stats.Skipped)
	if params.Observer != nil {
		params.Observer.OnRunEnd(results)
	}
	return results, nil
}

// runSetup holds everything built from the configuration before the first batch.
type runSetup struct {
	models    roster.Roster
	backends  []backend.Backend
	template  prompt.Template
	generator *perturb.Generator
	severity  perturb.Severity
}

func prepareRun(cfg spec.Config, params RunParams, logger *slog.Logger) (runSetup, error) {
	models := make(roster.Roster, 0, len(cfg.ModelRoster))
	for _, entry := range cfg.ModelRoster {
		models = append(models, roster.Entry{ID: entry.ID, DisplayName: entry.DisplayName})
	}
	if err := models.Validate(); err != nil {
		return runSetup{}, fmt.Errorf("model roster: %w", err)
	}
	if cfg.BatchSize <= 0 {
		return runSetup{}, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}

	template, err := prompt.Parse(cfg.PromptTemplate)
	if err != nil {
		return runSetup{}, err
	}
	severity, err := perturb.ParseSeverity(string(cfg.MisspellingSeverity))
	if err != nil {
		return runSetup{}, err
	}
	strategy, err := perturb.ParseStrategy(cfg.MisspellingStrategy)
	if err != nil {
		return runSetup{}, err
	}
	generator, err := perturb.NewGenerator(perturb.Options{Strategy: strategy, PreserveCase: cfg.PreserveCase})
	if err != nil {
		return runSetup{}, err
	}

	factory := params.Deps.BackendFactory
	if factory == nil {
		lookupEnv := params.Deps.LookupEnv
		if lookupEnv == nil {
			lookupEnv = os.LookupEnv
		}
		factory = defaultBackendFactory(lookupEnv)
	}
	maxRetries := ratelimit.DefaultMaxRetries
	if cfg.MaxRetries != nil {
		maxRetries = *cfg.MaxRetries
	}
	backends := make([]backend.Backend, 0, len(cfg.ModelRoster))
	for i, entry := range cfg.ModelRoster {
		client, err := factory(entry, cfg.MaxTokens)
		if err != nil {
			return runSetup{}, fmt.Errorf("backend %s: %w", entry.ID, err)
		}
		policy := ratelimit.NewRetryPolicy(maxRetries, cfg.Seed+int64(i), logger)
		if params.Deps.Sleep != nil {
			policy.Sleep = params.Deps.Sleep
		}
		policy.OnRetry = retryHook(params.Metrics)
		backends = append(backends, ratelimit.Wrap(client, policy, ratelimit.NewPacer(entry.RequestsPerMinute)))
	}

	return runSetup{
		models:    models,
		backends:  backends,
		template:  template,
		generator: generator,
		severity:  severity,
	}, nil
}

func defaultBackendFactory(lookupEnv func(string) (string, bool)) BackendFactory {
	return func(cfg spec.BackendConfig, maxTokens int) (backend.Backend, error) {
		key, ok := lookupEnv(cfg.APIKeyEnv)
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%s is not set", cfg.APIKeyEnv)
		}
		client, err := backend.NewOpenAICompatible(backend.Config{
			ID:        cfg.ID,
			Kind:      cfg.Provider,
			Model:     cfg.Model,
			APIKey:    strings.TrimSpace(key),
			BaseURL:   cfg.BaseURL,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func ensureRunID(factory func() (string, error)) (string, error) {
	if factory == nil {
		factory = NewRunID
	}
	runID, err := factory()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return runID, nil
}

// batchDriver evaluates the items of one batch.
type batchDriver struct {
	cfg        spec.Config
	setup      runSetup
	dispatcher *dispatcher
	params     RunParams
	logger     *slog.Logger
	now        func() time.Time
}

// runBatch evaluates items with bounded concurrency and returns records in
// item order.
func (d batchDriver) runBatch(ctx context.Context, batchIndex int, items []question.EvalItem) ([]ComparisonRecord, error) {
	observer := d.params.Observer
	if observer != nil {
		observer.OnBatchStart(batchIndex, items)
	}
	for _, item := range items {
		itemEmitter{observer: observer, batchIndex: batchIndex, item: item}.emit(ItemEvent{Type: ItemQueued})
	}

	records := make([]ComparisonRecord, len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	concurrency := d.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	group.SetLimit(concurrency)
	for index, item := range items {
		emitter := itemEmitter{observer: observer, batchIndex: batchIndex, item: item}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				emitter.emit(ItemEvent{Type: ItemFailed, Error: err.Error()})
				return err
			}
			record, err := d.evaluate(groupCtx, emitter, item)
			if err != nil {
				emitter.emit(ItemEvent{Type: ItemFailed, Error: err.Error()})
				return err
			}
			records[index] = record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch %d: %w", batchIndex, err)
	}
	// Calls that returned early because the run was cancelled leave failed
	// answers behind; those records are not persisted.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch %d: %w", batchIndex, err)
	}
	return records, nil
}

func (d batchDriver) evaluate(ctx context.Context, emitter itemEmitter, item question.EvalItem) (ComparisonRecord, error) {
	variant, err := d.setup.generator.GenerateVariant(item.Query, d.setup.severity, perturb.RowSeed(d.cfg.Seed, item.RowIdx))
	if err != nil {
		return ComparisonRecord{}, fmt.Errorf("row %d: %w", item.RowIdx, err)
	}
	emitter.emit(ItemEvent{Type: ItemRunning, CharChangeCount: variant.CharChangeCount})
	d.logger.Debug("evaluating row", "row_idx", item.RowIdx, "char_changes", variant.CharChangeCount)

	original, perturbed := d.dispatcher.dispatch(ctx, emitter, item.Query, variant.Text)
	record := BuildRecord(RecordInput{
		Item:      item,
		Variant:   variant,
		Roster:    d.setup.models,
		Original:  original,
		Perturbed: perturbed,
		Timestamp: d.now(),
	})
	d.params.Metrics.ObserveOutcome(VariantOriginal, string(record.Results.Original.Outcome))
	d.params.Metrics.ObserveOutcome(VariantPerturbed, string(record.Results.Perturbed.Outcome))
	emitter.emit(ItemEvent{
		Type:            ItemDone,
		CharChangeCount: variant.CharChangeCount,
		Original:        record.Results.Original.Outcome,
		Perturbed:       record.Results.Perturbed.Outcome,
	})
	return record, nil
}
