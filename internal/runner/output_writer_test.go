package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestFileSinkReplacesCheckpoint verifies each Persist rewrites the full
// list and leaves no temp files behind.
func TestFileSinkReplacesCheckpoint(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{Path: filepath.Join(dir, "nested", "results.json")}
	if err := sink.Persist([]ComparisonRecord{{RowIdx: 0}}); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	if err := sink.Persist([]ComparisonRecord{{RowIdx: 0}, {RowIdx: 1}}); err != nil {
		t.Fatalf("second persist: %v", err)
	}
	records, err := LoadRecords(sink.Path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 || records[1].RowIdx != 1 {
		t.Fatalf("unexpected records %+v", records)
	}
	entries, err := os.ReadDir(filepath.Dir(sink.Path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the result file, got %d entries", len(entries))
	}
	data, _ := os.ReadFile(sink.Path)
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Fatalf("expected indented array, got %q", string(data)[:10])
	}
}

// TestFileSinkKeepsPreviousFileOnFailure verifies a failed write does not
// clobber the last checkpoint.
func TestFileSinkKeepsPreviousFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	// A directory in place of the target makes the final rename fail.
	blocked := FileSink{Path: filepath.Join(dir, "blocked")}
	if err := os.MkdirAll(filepath.Join(blocked.Path, "child"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := blocked.Persist([]ComparisonRecord{{RowIdx: 3}}); err == nil {
		t.Fatalf("expected rename failure")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "[]\n" {
		t.Fatalf("previous checkpoint changed: %q %v", data, err)
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, ".blocked.*.tmp")); len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestFileSinkRequiresPath(t *testing.T) {
	if err := (FileSink{}).Persist(nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
