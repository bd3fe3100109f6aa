package question

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DatasetFormatError describes a dataset row that cannot be evaluated.
// Index is the row position in the source; RowIdx is set when the row
// carried a readable row_idx.
type DatasetFormatError struct {
	Index  int
	RowIdx *int
	Field  string
	Reason string
}

func (err *DatasetFormatError) Error() string {
	location := fmt.Sprintf("dataset row %d", err.Index)
	if err.RowIdx != nil {
		location = fmt.Sprintf("%s (row_idx %d)", location, *err.RowIdx)
	}
	if err.Field == "" {
		return fmt.Sprintf("%s: %s", location, err.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", location, err.Field, err.Reason)
}

type rawRow struct {
	RowIdx *int `json:"row_idx"`
	Row    *struct {
		InputQuery     *string `json:"input_query"`
		ExpectedAnswer *string `json:"expected_answer"`
	} `json:"row"`
}

// decodeRow validates one dataset row.
func decodeRow(index int, data []byte) (EvalItem, error) {
	var row rawRow
	if err := json.Unmarshal(data, &row); err != nil {
		return EvalItem{}, &DatasetFormatError{Index: index, Reason: err.Error()}
	}
	fail := func(field, reason string) (EvalItem, error) {
		return EvalItem{}, &DatasetFormatError{Index: index, RowIdx: row.RowIdx, Field: field, Reason: reason}
	}
	if row.RowIdx == nil {
		return fail("row_idx", "is required")
	}
	if row.Row == nil {
		return fail("row", "is required")
	}
	if row.Row.InputQuery == nil {
		return fail("row.input_query", "is required")
	}
	if strings.TrimSpace(*row.Row.InputQuery) == "" {
		return fail("row.input_query", "is empty")
	}
	if row.Row.ExpectedAnswer == nil {
		return fail("row.expected_answer", "is required")
	}
	letter, ok := ParseLetter(*row.Row.ExpectedAnswer)
	if !ok {
		return fail("row.expected_answer", fmt.Sprintf("must be one of A-D, got %q", *row.Row.ExpectedAnswer))
	}
	return EvalItem{RowIdx: *row.RowIdx, Query: *row.Row.InputQuery, Expected: letter}, nil
}
