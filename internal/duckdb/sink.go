// Package duckdb mirrors comparison records into a DuckDB database for
// ad-hoc analysis.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"typobench/internal/eval"
	"typobench/internal/runner"
)

// Sink upserts one answers row per (run, row, variant, model). It
// implements runner.BatchSink.
type Sink struct {
	db    *sql.DB
	owned bool
	now   func() time.Time

	mu     sync.Mutex
	runIDs map[string]string
}

// Open opens or creates the database at path and applies the schema.
// An empty path opens an in-memory database.
func Open(ctx context.Context, path string) (*Sink, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	sink := NewSink(db)
	sink.owned = true
	return sink, nil
}

// NewSink wraps an existing connection that already has the schema.
func NewSink(db *sql.DB) *Sink {
	return &Sink{db: db, now: time.Now, runIDs: map[string]string{}}
}

// DB exposes the underlying connection.
func (s *Sink) DB() *sql.DB {
	return s.db
}

// Close closes the database when the sink opened it.
func (s *Sink) Close() error {
	if s == nil || !s.owned || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PersistBatch writes every answer of batch in one transaction. Re-sending
// a record overwrites its previous answers.
func (s *Sink) PersistBatch(ctx context.Context, runKey string, batch []runner.ComparisonRecord) error {
	if s == nil || s.db == nil {
		return errors.New("duckdb: sink is not open")
	}
	if runKey == "" {
		return errors.New("duckdb: run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin duckdb tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID, err := s.upsertRun(ctx, tx, runKey)
	if err != nil {
		return err
	}
	for _, record := range batch {
		questionID, err := s.upsertQuestion(ctx, tx, record)
		if err != nil {
			return err
		}
		variants := []struct {
			name   string
			text   string
			result eval.VariantResult
		}{
			{runner.VariantOriginal, record.OriginalText, record.Results.Original},
			{runner.VariantPerturbed, record.PerturbedText, record.Results.Perturbed},
		}
		for _, variant := range variants {
			for _, answer := range variant.result.ModelAnswers {
				if err := s.upsertAnswer(ctx, tx, answerRow{
					runID:      runID,
					questionID: questionID,
					variant:    variant.name,
					promptText: variant.text,
					result:     variant.result,
					answer:     answer,
					record:     record,
				}); err != nil {
					return err
				}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit duckdb tx: %w", err)
	}
	s.mu.Lock()
	s.runIDs[runKey] = runID
	s.mu.Unlock()
	return nil
}

// upsertRun inserts the run by its textual id and returns its UUID.
func (s *Sink) upsertRun(ctx context.Context, db execQuerier, runKey string) (string, error) {
	s.mu.Lock()
	cached, ok := s.runIDs[runKey]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}
	var startedAt any
	if at, ok := runner.RunIDTime(runKey); ok {
		startedAt = at
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO runs (run_id, run_key, started_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (run_key) DO NOTHING`,
		uuid.NewString(), runKey, startedAt, s.now().UTC(),
	); err != nil {
		return "", fmt.Errorf("upsert run: %w", err)
	}
	id, err := lookupID(ctx, db, "runs", "run_id", "run_key", runKey)
	if err != nil {
		return "", fmt.Errorf("lookup run id: %w", err)
	}
	return id, nil
}

// upsertQuestion inserts the question by its fingerprint and returns its UUID.
func (s *Sink) upsertQuestion(ctx context.Context, db execQuerier, record runner.ComparisonRecord) (string, error) {
	key, err := QuestionKey(record.OriginalText, record.ExpectedAnswer)
	if err != nil {
		return "", err
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO questions (question_id, question_key, query, expected_answer, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (question_key) DO NOTHING`,
		uuid.NewString(), key, record.OriginalText, record.ExpectedAnswer, s.now().UTC(),
	); err != nil {
		return "", fmt.Errorf("upsert question: %w", err)
	}
	id, err := lookupID(ctx, db, "questions", "question_id", "question_key", key)
	if err != nil {
		return "", fmt.Errorf("lookup question id: %w", err)
	}
	return id, nil
}

type answerRow struct {
	runID      string
	questionID string
	variant    string
	promptText string
	result     eval.VariantResult
	answer     eval.ModelAnswer
	record     runner.ComparisonRecord
}

func (s *Sink) upsertAnswer(ctx context.Context, db execQuerier, row answerRow) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO answers (
		  answer_id, run_id, row_idx, question_id, variant, model_id, display_name,
		  letter, failed, correct, error, prompt_text, char_change_count, severity,
		  severity_probability, strategy, seed, outcome, models_agree, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, row_idx, variant, model_id) DO UPDATE SET
		  display_name = excluded.display_name,
		  letter = excluded.letter,
		  failed = excluded.failed,
		  correct = excluded.correct,
		  error = excluded.error,
		  outcome = excluded.outcome,
		  models_agree = excluded.models_agree,
		  recorded_at = excluded.recorded_at`,
		uuid.NewString(),
		row.runID,
		row.record.RowIdx,
		row.questionID,
		row.variant,
		row.answer.ModelID,
		row.answer.DisplayName,
		nullableLetter(row.answer.Letter),
		row.answer.Failed,
		row.answer.Correct,
		nullableString(row.answer.Error),
		row.promptText,
		row.record.CharChangeCount,
		row.record.Severity,
		row.record.SeverityProbability,
		row.record.Strategy,
		row.record.Seed,
		string(row.result.Outcome),
		row.result.ModelsAgree,
		row.record.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("upsert answer row %d %s %s: %w", row.record.RowIdx, row.variant, row.answer.ModelID, err)
	}
	return nil
}

// Accuracy is one row of the v_model_accuracy view.
type Accuracy struct {
	ModelID string
	Variant string
	Answers int
	Correct int
	Failed  int
}

// Rate returns correct answers over all answers.
func (a Accuracy) Rate() float64 {
	if a.Answers == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Answers)
}

// ModelAccuracy reads per-model accuracy for a run, ordered by model and variant.
func (s *Sink) ModelAccuracy(ctx context.Context, runKey string) ([]Accuracy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, variant, answers, correct, failed
		 FROM v_model_accuracy
		 WHERE run_key = ?
		 ORDER BY model_id, variant`, runKey)
	if err != nil {
		return nil, fmt.Errorf("query accuracy: %w", err)
	}
	defer rows.Close()
	var out []Accuracy
	for rows.Next() {
		var row Accuracy
		if err := rows.Scan(&row.ModelID, &row.Variant, &row.Answers, &row.Correct, &row.Failed); err != nil {
			return nil, fmt.Errorf("scan accuracy: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ runner.BatchSink = (*Sink)(nil)
