package duckdb_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	duckdbtesting "typobench/internal/duckdb/testing"
	"typobench/internal/testutil"
)

const (
	testTimeout = 2 * time.Second
)

// openTestDB opens an in-memory DuckDB instance with the schema applied.
func openTestDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	ctx := testutil.Context(t, testTimeout)
	return duckdbtesting.OpenWithSchema(t), ctx
}

// queryInt returns a single integer value from the database.
func queryInt(t *testing.T, ctx context.Context, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var out int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		t.Fatalf("query int failed: %v", err)
	}
	return out
}
