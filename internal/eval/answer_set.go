package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerSet holds answers in roster order and encodes as a JSON object
// keyed by model id, keeping that order.
type AnswerSet []ModelAnswer

// Get returns the answer for id.
func (s AnswerSet) Get(id string) (ModelAnswer, bool) {
	for _, answer := range s {
		if answer.ModelID == id {
			return answer, true
		}
	}
	return ModelAnswer{}, false
}

// MarshalJSON encodes the set as an ordered object.
func (s AnswerSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, answer := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(answer.ModelID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(answer)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("model answers: expected object, got %v", tok)
	}
	var answers AnswerSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var answer ModelAnswer
		if err := dec.Decode(&answer); err != nil {
			return fmt.Errorf("model answers %q: %w", key, err)
		}
		if answer.ModelID == "" {
			answer.ModelID = key
		}
		answers = append(answers, answer)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = answers
	return nil
}
