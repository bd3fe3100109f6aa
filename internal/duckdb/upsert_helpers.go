package duckdb

import (
	"context"
	"database/sql"
	"fmt"
)

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// nullableString maps an empty string to SQL NULL.
func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// nullableLetter maps a missing letter to SQL NULL.
func nullableLetter(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

// lookupID fetches a single ID column value for a row keyed by keyColumn.
func lookupID(ctx context.Context, db execQuerier, table, idColumn, keyColumn, key string) (string, error) {
	query := fmt.Sprintf("SELECT CAST(%s AS VARCHAR) FROM %s WHERE %s = ?", idColumn, table, keyColumn)
	var id string
	if err := db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
