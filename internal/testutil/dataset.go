package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Row is one dataset entry for WriteDataset.
type Row struct {
	RowIdx   int
	Query    string
	Expected string
}

// WriteDataset writes rows in the {"rows":[...]} layout and returns the path.
func WriteDataset(t testing.TB, dir string, rows []Row) string {
	t.Helper()
	type payload struct {
		InputQuery     string `json:"input_query"`
		ExpectedAnswer string `json:"expected_answer"`
	}
	type entry struct {
		RowIdx int     `json:"row_idx"`
		Row    payload `json:"row"`
	}
	doc := struct {
		Rows []entry `json:"rows"`
	}{Rows: make([]entry, 0, len(rows))}
	for _, row := range rows {
		doc.Rows = append(doc.Rows, entry{RowIdx: row.RowIdx, Row: payload{InputQuery: row.Query, ExpectedAnswer: row.Expected}})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal dataset: %v", err)
	}
	path := filepath.Join(dir, "eval_data.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}
