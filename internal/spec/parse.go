package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrEmptyConfig reports a config file with no YAML document.
var ErrEmptyConfig = errors.New("config is empty")

// ParseConfig decodes exactly one YAML document into a Config. Unknown keys
// are errors so that misspelled options do not silently fall back to
// defaults.
func ParseConfig(data []byte) (Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var cfg Config
	switch err := decoder.Decode(&cfg); {
	case errors.Is(err, io.EOF):
		return Config{}, fmt.Errorf("parse config: %w", ErrEmptyConfig)
	case err != nil:
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	var extra yaml.Node
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("parse config: %w", err)
	default:
		return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported (second document at line %d)", extra.Line)
	}
}
