// Package metrics exposes run counters through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "typobench"

// Call results recorded by ObserveCall.
const (
	ResultAnswered = "answered"
	ResultNoAnswer = "no_answer"
	ResultError    = "error"
)

// Recorder records run metrics. A nil Recorder discards everything.
type Recorder struct {
	calls         *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	skippedRows   prometheus.Counter
	records       prometheus.Counter
	batchDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Backend calls by backend, variant and result",
		}, []string{"backend", "variant", "result"}),
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Backend call latency including retries",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_retries_total",
			Help:      "Retries scheduled after rate limiting",
		}, []string{"backend"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variant_outcomes_total",
			Help:      "Classified outcomes by variant",
		}, []string{"variant", "outcome"}),
		skippedRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_rows_skipped_total",
			Help:      "Dataset rows skipped as malformed",
		}),
		records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_persisted_total",
			Help:      "Comparison records written to the result file",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to evaluate and persist one batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// ObserveCall records one backend call.
func (r *Recorder) ObserveCall(backend, variant, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.calls.WithLabelValues(backend, variant, result).Inc()
	r.callDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveRetry records a scheduled retry.
func (r *Recorder) ObserveRetry(backend string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(backend).Inc()
}

// ObserveOutcome records a classified variant.
func (r *Recorder) ObserveOutcome(variant, outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(variant, outcome).Inc()
}

// AddSkippedRows records malformed rows.
func (r *Recorder) AddSkippedRows(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skippedRows.Add(float64(n))
}

// ObserveBatch records a persisted batch.
func (r *Recorder) ObserveBatch(records int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.records.Add(float64(records))
	r.batchDuration.Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
