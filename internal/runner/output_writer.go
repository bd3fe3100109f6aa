package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink rewrites the whole result file after every batch.
type FileSink struct {
	Path string
}

// Persist writes records as an indented JSON array. The file is replaced
// atomically, so an interrupted write leaves the previous checkpoint intact.
func (s FileSink) Persist(records []ComparisonRecord) error {
	if s.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if records == nil {
		records = []ComparisonRecord{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	payload = append(payload, '\n')
	return writeFileAtomic(s.Path, payload)
}

// LoadRecords reads a result file written by FileSink.
func LoadRecords(path string) ([]ComparisonRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var records []ComparisonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return records, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}
