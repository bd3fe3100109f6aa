package question

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRowsField is the top-level field holding dataset rows.
const DefaultRowsField = "rows"

const defaultMaxRecordedErrors = 100

// ErrRowsFieldMissing reports a JSON document without the rows array.
var ErrRowsFieldMissing = errors.New("rows field not found")

// Format selects how a dataset file is framed.
type Format int

const (
	// FormatJSON is a single document holding the rows array.
	FormatJSON Format = iota
	// FormatJSONL is one row object per line.
	FormatJSONL
)

// FormatForPath picks the framing from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

// StreamOptions configures batching.
type StreamOptions struct {
	BatchSize int
	// TotalLimit stops the stream after this many items; zero means all.
	TotalLimit int
	RowsField  string
	// MaxRecordedErrors caps Stats.Errors.
	MaxRecordedErrors int
}

// Stream reads evaluation items in fixed-size batches without loading the
// whole dataset.
type Stream struct {
	closer  io.Closer
	format  Format
	opts    StreamOptions
	dec     *json.Decoder
	lines   *bufio.Scanner
	started bool
	done    bool
	err     error
	index   int
	stats   Stats
}

// OpenStream opens a dataset file for batched reading.
func OpenStream(path string, opts StreamOptions) (*Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	stream, err := NewStream(file, FormatForPath(path), opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	stream.closer = file
	return stream, nil
}

// NewStream wraps a reader. The caller owns r.
func NewStream(r io.Reader, format Format, opts StreamOptions) (*Stream, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.TotalLimit < 0 {
		return nil, fmt.Errorf("total limit must not be negative, got %d", opts.TotalLimit)
	}
	if opts.RowsField == "" {
		opts.RowsField = DefaultRowsField
	}
	if opts.MaxRecordedErrors <= 0 {
		opts.MaxRecordedErrors = defaultMaxRecordedErrors
	}
	stream := &Stream{format: format, opts: opts}
	if format == FormatJSONL {
		stream.lines = bufio.NewScanner(r)
		stream.lines.Buffer(make([]byte, 64*1024), 16*1024*1024)
	} else {
		stream.dec = json.NewDecoder(r)
	}
	return stream, nil
}

// Next returns the next batch. Batches hold exactly BatchSize items except
// the last one; io.EOF signals the end. Malformed rows are skipped and
// recorded in Stats.
func (s *Stream) Next() ([]EvalItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done {
		return nil, io.EOF
	}
	batch := make([]EvalItem, 0, s.opts.BatchSize)
	for len(batch) < s.opts.BatchSize {
		if s.opts.TotalLimit > 0 && s.stats.Emitted >= s.opts.TotalLimit {
			s.done = true
			break
		}
		raw, ok, err := s.nextRaw()
		if err != nil {
			s.err = err
			return nil, err
		}
		if !ok {
			s.done = true
			break
		}
		index := s.index
		s.index++
		item, err := decodeRow(index, raw)
		if err != nil {
			s.recordSkip(err)
			continue
		}
		batch = append(batch, item)
		s.stats.Emitted++
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Stats returns counters for the rows read so far.
func (s *Stream) Stats() Stats {
	stats := s.stats
	stats.Errors = append([]error(nil), s.stats.Errors...)
	return stats
}

// Close releases the underlying file when the stream opened it.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

func (s *Stream) recordSkip(err error) {
	s.stats.Skipped++
	if len(s.stats.Errors) < s.opts.MaxRecordedErrors {
		s.stats.Errors = append(s.stats.Errors, err)
	}
}

func (s *Stream) nextRaw() ([]byte, bool, error) {
	if s.format == FormatJSONL {
		return s.nextLine()
	}
	if !s.started {
		if err := s.seekRows(); err != nil {
			return nil, false, err
		}
		s.started = true
	}
	if !s.dec.More() {
		if _, err := s.dec.Token(); err != nil {
			return nil, false, fmt.Errorf("parse dataset: %w", err)
		}
		return nil, false, nil
	}
	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		return nil, false, fmt.Errorf("parse dataset row %d: %w", s.index, err)
	}
	return raw, true, nil
}

func (s *Stream) nextLine() ([]byte, bool, error) {
	for s.lines.Scan() {
		line := bytes.TrimSpace(s.lines.Bytes())
		if len(line) == 0 {
			continue
		}
		return append([]byte(nil), line...), true, nil
	}
	if err := s.lines.Err(); err != nil {
		return nil, false, fmt.Errorf("read dataset: %w", err)
	}
	return nil, false, nil
}

// seekRows advances the decoder to the first element of the rows array.
// A bare top-level array is accepted as the rows array itself.
func (s *Stream) seekRows() error {
	tok, err := s.dec.Token()
	if err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}
	switch tok {
	case json.Delim('['):
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("parse dataset: expected object or array, got %v", tok)
	}
	for s.dec.More() {
		keyTok, err := s.dec.Token()
		if err != nil {
			return fmt.Errorf("parse dataset: %w", err)
		}
		key, _ := keyTok.(string)
		if key != s.opts.RowsField {
			var skip json.RawMessage
			if err := s.dec.Decode(&skip); err != nil {
				return fmt.Errorf("parse dataset field %q: %w", key, err)
			}
			continue
		}
		open, err := s.dec.Token()
		if err != nil {
			return fmt.Errorf("parse dataset field %q: %w", key, err)
		}
		if open != json.Delim('[') {
			return fmt.Errorf("parse dataset: field %q is not an array", key)
		}
		return nil
	}
	return fmt.Errorf("parse dataset: %w: %q", ErrRowsFieldMissing, s.opts.RowsField)
}

// Count streams a whole dataset and returns its row statistics.
func Count(path string, rowsField string) (Stats, error) {
	stream, err := OpenStream(path, StreamOptions{BatchSize: 256, RowsField: rowsField})
	if err != nil {
		return Stats{}, err
	}
	defer stream.Close()
	for {
		if _, err := stream.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return stream.Stats(), nil
			}
			return stream.Stats(), err
		}
	}
}
