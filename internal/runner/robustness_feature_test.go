package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"typobench/internal/backend"
	"typobench/internal/eval"
	"typobench/internal/spec"
	"typobench/internal/testutil"
)

// TestRobustnessFeatures executes the end-to-end comparison scenarios via godog.
func TestRobustnessFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "robustness",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "features", "robustness.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeScenario wires step definitions for the robustness scenarios.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &robustnessState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, state.reset()
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		state.close()
		return ctx, nil
	})

	ctx.Step(`^a dataset with (\d+) questions whose answer is "([A-D])"$`, state.givenDataset)
	ctx.Step(`^the dataset also contains a row with expected answer "([^"]*)"$`, state.givenMalformedRow)
	ctx.Step(`^a backend "([^"]+)" that always answers "([A-D])"$`, state.givenSteadyBackend)
	ctx.Step(`^a backend "([^"]+)" that answers "([A-D])" only on original questions and "([A-D])" otherwise$`, state.givenFragileBackend)
	ctx.Step(`^a backend "([^"]+)" that always fails with "([^"]+)"$`, state.givenBrokenBackend)
	ctx.Step(`^a backend "([^"]+)" that is rate limited (\d+) times before answering "([A-D])"$`, state.givenThrottledBackend)
	ctx.Step(`^misspelling severity "([^"]+)"$`, state.givenSeverity)
	ctx.Step(`^max retries (\d+)$`, state.givenMaxRetries)
	ctx.Step(`^the evaluation runs with batch size (\d+)$`, state.runEvaluation)
	ctx.Step(`^the result file contains (\d+) records in row order$`, state.resultFileContains)
	ctx.Step(`^every record lists backends "([^"]+)" for both variants$`, state.everyRecordListsBackends)
	ctx.Step(`^the (original|perturbed) outcome of every record is "([A-Z_]+)"$`, state.everyOutcomeIs)
	ctx.Step(`^every record has at least (\d+) changed character$`, state.everyRecordChanged)
	ctx.Step(`^every answer from "([^"]+)" is failed with an error containing "([^"]+)"$`, state.everyAnswerFailed)
	ctx.Step(`^the run waited (\d+) times for rate limits$`, state.runWaited)
	ctx.Step(`^(\d+) dataset rows were skipped$`, state.rowsSkipped)
}

// robustnessState holds scenario state for the feature tests.
type robustnessState struct {
	dir     string
	rows    []json.RawMessage
	queries []string
	cfg     spec.Config
	fakes   map[string]func(context.Context, string) (string, error)
	mu      sync.Mutex
	waits   int
	results Results
	records []ComparisonRecord
}

// reset prepares a fresh temp directory and configuration.
func (s *robustnessState) reset() error {
	s.close()
	dir, err := os.MkdirTemp("", "typobench-feature-*")
	if err != nil {
		return err
	}
	s.dir = dir
	s.rows = nil
	s.queries = nil
	s.fakes = map[string]func(context.Context, string) (string, error){}
	s.waits = 0
	s.results = Results{}
	s.records = nil
	zero := 0
	s.cfg = spec.Config{
		Version:             1,
		DatasetPath:         filepath.Join(dir, "eval_data.json"),
		RowsField:           "rows",
		BatchSize:           2,
		Concurrency:         2,
		Seed:                42,
		MisspellingSeverity: "medium",
		MisspellingStrategy: "random_char",
		MaxRetries:          &zero,
		MaxTokens:           100,
		OutputPath:          filepath.Join(dir, "results", "model_comparison_results.json"),
	}
	return nil
}

// close removes the scenario directory.
func (s *robustnessState) close() {
	if s.dir != "" {
		os.RemoveAll(s.dir)
		s.dir = ""
	}
}

func (s *robustnessState) givenDataset(count int, letter string) error {
	for i := 0; i < count; i++ {
		query := fmt.Sprintf("Question number %d asks which option describes the behaviour of the system? A) first B) second C) third D) fourth", i)
		row, err := json.Marshal(map[string]any{
			"row_idx": i,
			"row":     map[string]string{"input_query": query, "expected_answer": letter},
		})
		if err != nil {
			return err
		}
		s.rows = append(s.rows, row)
		s.queries = append(s.queries, query)
	}
	return nil
}

func (s *robustnessState) givenMalformedRow(letter string) error {
	row, err := json.Marshal(map[string]any{
		"row_idx": len(s.rows),
		"row":     map[string]string{"input_query": "Which one?", "expected_answer": letter},
	})
	if err != nil {
		return err
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *robustnessState) addBackend(id string, fn func(context.Context, string) (string, error)) {
	s.cfg.ModelRoster = append(s.cfg.ModelRoster, spec.BackendConfig{ID: id, Provider: backend.KindGroq, Model: "fake-" + id})
	s.fakes[id] = fn
}

func (s *robustnessState) isOriginal(prompt string) bool {
	for _, query := range s.queries {
		if strings.Contains(prompt, query) {
			return true
		}
	}
	return false
}

func (s *robustnessState) givenSteadyBackend(id, letter string) error {
	s.addBackend(id, func(context.Context, string) (string, error) {
		return "Let me think.\nAnswer: " + letter, nil
	})
	return nil
}

func (s *robustnessState) givenFragileBackend(id, original, perturbed string) error {
	s.addBackend(id, func(_ context.Context, prompt string) (string, error) {
		if s.isOriginal(prompt) {
			return "Answer: " + original, nil
		}
		return "Answer: " + perturbed, nil
	})
	return nil
}

func (s *robustnessState) givenBrokenBackend(id, message string) error {
	s.addBackend(id, func(context.Context, string) (string, error) {
		return "", &backend.Error{Backend: id, StatusCode: 503, Message: message}
	})
	return nil
}

func (s *robustnessState) givenThrottledBackend(id string, times int, letter string) error {
	var mu sync.Mutex
	remaining := times
	s.addBackend(id, func(context.Context, string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if remaining > 0 {
			remaining--
			return "", &backend.Error{Backend: id, StatusCode: 429, RateLimited: true, Message: "rate limit exceeded"}
		}
		return "Answer: " + letter, nil
	})
	return nil
}

func (s *robustnessState) givenSeverity(value string) error {
	s.cfg.MisspellingSeverity = spec.SeverityValue(value)
	return nil
}

func (s *robustnessState) givenMaxRetries(n int) error {
	s.cfg.MaxRetries = &n
	return nil
}

func (s *robustnessState) runEvaluation(batchSize int) error {
	data, err := json.Marshal(map[string]any{"rows": s.rows})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.cfg.DatasetPath, data, 0o644); err != nil {
		return err
	}
	s.cfg.BatchSize = batchSize
	clock := testutil.NewSteppingClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := Run(ctx, s.cfg, RunParams{
		Deps: RunDependencies{
			BackendFactory: fakeFactory(s.fakes),
			Now:            clock.Now,
			Sleep: func(context.Context, time.Duration) error {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.waits++
				return nil
			},
		},
	})
	if err != nil {
		return err
	}
	s.results = results
	s.records, err = LoadRecords(results.OutputPath)
	return err
}

func (s *robustnessState) resultFileContains(count int) error {
	if len(s.records) != count {
		return fmt.Errorf("expected %d records, got %d", count, len(s.records))
	}
	for i := 1; i < len(s.records); i++ {
		if s.records[i].RowIdx <= s.records[i-1].RowIdx {
			return fmt.Errorf("records out of order at %d", i)
		}
	}
	return nil
}

func (s *robustnessState) everyRecordListsBackends(list string) error {
	for _, record := range s.records {
		for _, variant := range []eval.VariantResult{record.Results.Original, record.Results.Perturbed} {
			ids := make([]string, 0, len(variant.ModelAnswers))
			for _, answer := range variant.ModelAnswers {
				ids = append(ids, answer.ModelID)
			}
			if strings.Join(ids, ",") != list {
				return fmt.Errorf("row %d lists %v", record.RowIdx, ids)
			}
		}
	}
	return nil
}

func (s *robustnessState) everyOutcomeIs(variant, outcome string) error {
	if len(s.records) == 0 {
		return fmt.Errorf("no records")
	}
	for _, record := range s.records {
		got := record.Results.Original.Outcome
		if variant == VariantPerturbed {
			got = record.Results.Perturbed.Outcome
		}
		if string(got) != outcome {
			return fmt.Errorf("row %d %s outcome is %s", record.RowIdx, variant, got)
		}
	}
	return nil
}

func (s *robustnessState) everyRecordChanged(min int) error {
	for _, record := range s.records {
		if record.CharChangeCount < min || record.PerturbedText == record.OriginalText {
			return fmt.Errorf("row %d changed %d characters", record.RowIdx, record.CharChangeCount)
		}
	}
	return nil
}

func (s *robustnessState) everyAnswerFailed(id, message string) error {
	for _, record := range s.records {
		for _, variant := range []eval.VariantResult{record.Results.Original, record.Results.Perturbed} {
			answer, ok := variant.ModelAnswers.Get(id)
			if !ok {
				return fmt.Errorf("row %d has no answer from %s", record.RowIdx, id)
			}
			if !answer.Failed || answer.Letter != nil || !strings.Contains(answer.Error, message) {
				return fmt.Errorf("row %d: unexpected answer %+v", record.RowIdx, answer)
			}
		}
	}
	return nil
}

func (s *robustnessState) runWaited(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waits != count {
		return fmt.Errorf("expected %d waits, got %d", count, s.waits)
	}
	return nil
}

func (s *robustnessState) rowsSkipped(count int) error {
	if s.results.Dataset.Skipped != count {
		return fmt.Errorf("expected %d skipped rows, got %d", count, s.results.Dataset.Skipped)
	}
	return nil
}
