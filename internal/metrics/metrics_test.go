package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecorderCounts verifies each recorder method updates its collector.
func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)
	rec.ObserveCall("openai", "original", ResultAnswered, time.Second)
	rec.ObserveCall("openai", "original", ResultAnswered, time.Second)
	rec.ObserveCall("groq", "perturbed", ResultError, time.Second)
	rec.ObserveRetry("groq")
	rec.ObserveOutcome("perturbed", "MIXED_RESULTS")
	rec.AddSkippedRows(3)
	rec.ObserveBatch(2, time.Second)

	if got := testutil.ToFloat64(rec.calls.WithLabelValues("openai", "original", ResultAnswered)); got != 2 {
		t.Fatalf("expected 2 calls, got %v", got)
	}
	if got := testutil.ToFloat64(rec.retries.WithLabelValues("groq")); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(rec.outcomes.WithLabelValues("perturbed", "MIXED_RESULTS")); got != 1 {
		t.Fatalf("expected 1 outcome, got %v", got)
	}
	if got := testutil.ToFloat64(rec.skippedRows); got != 3 {
		t.Fatalf("expected 3 skipped rows, got %v", got)
	}
	if got := testutil.ToFloat64(rec.records); got != 2 {
		t.Fatalf("expected 2 records, got %v", got)
	}
}

// TestNilRecorder verifies a nil recorder is a no-op.
func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	rec.ObserveCall("a", "original", ResultAnswered, time.Second)
	rec.ObserveRetry("a")
	rec.ObserveOutcome("original", "ALL_CORRECT")
	rec.AddSkippedRows(1)
	rec.ObserveBatch(1, time.Second)
}

// TestHandlerExposesMetrics verifies the HTTP exposition.
func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).ObserveRetry("groq")
	server := httptest.NewServer(Handler(reg))
	t.Cleanup(server.Close)
	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `typobench_rate_limit_retries_total{backend="groq"} 1`) {
		t.Fatalf("expected retry metric, got:\n%s", body)
	}
}
