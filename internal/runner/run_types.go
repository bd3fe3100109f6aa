package runner

import (
	"context"
	"log/slog"
	"time"

	"typobench/internal/backend"
	"typobench/internal/metrics"
	"typobench/internal/question"
	"typobench/internal/roster"
	"typobench/internal/spec"
)

// BackendFactory builds the client for one roster entry.
type BackendFactory func(cfg spec.BackendConfig, maxTokens int) (backend.Backend, error)

// RunDependencies allows injecting factories and clocks for a run.
type RunDependencies struct {
	BackendFactory BackendFactory
	RunID          func() (string, error)
	Now            func() time.Time
	LookupEnv      func(string) (string, bool)
	// Sleep replaces the retry wait, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RunParams configures a run invocation.
type RunParams struct {
	// OutputPath overrides cfg.OutputPath when set.
	OutputPath string
	// Limit overrides cfg.TotalItemLimit when positive.
	Limit    int
	Logger   *slog.Logger
	Observer RunObserver
	// Sinks receive each completed batch after the result file is written.
	Sinks   []BatchSink
	Metrics *metrics.Recorder
	Deps    RunDependencies
}

// Results summarizes a finished run.
type Results struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Roster     roster.Roster
	OutputPath string
	Records    []ComparisonRecord
	Dataset    question.Stats
	Summary    RunSummary
}

// BatchSink mirrors completed batches somewhere besides the result file.
type BatchSink interface {
	PersistBatch(ctx context.Context, runID string, batch []ComparisonRecord) error
}

// Variant labels used in events and metrics.
const (
	VariantOriginal  = "original"
	VariantPerturbed = "perturbed"
)
