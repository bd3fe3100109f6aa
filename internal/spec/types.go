package spec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the typobench run configuration.
type Config struct {
	Version             int             `yaml:"version"`
	DatasetPath         string          `yaml:"dataset_path"`
	RowsField           string          `yaml:"rows_field"`
	BatchSize           int             `yaml:"batch_size"`
	TotalItemLimit      int             `yaml:"total_item_limit"`
	Concurrency         int             `yaml:"concurrency"`
	Seed                int64           `yaml:"seed"`
	MisspellingSeverity SeverityValue   `yaml:"misspelling_severity"`
	MisspellingStrategy string          `yaml:"misspelling_strategy"`
	PreserveCase        bool            `yaml:"preserve_case"`
	MaxRetries          *int            `yaml:"max_retries"`
	MaxTokens           int             `yaml:"max_tokens"`
	OutputPath          string          `yaml:"output_path"`
	DuckDBPath          string          `yaml:"duckdb_path"`
	PromptTemplate      string          `yaml:"prompt_template"`
	ModelRoster         []BackendConfig `yaml:"model_roster"`
}

// BackendConfig describes one roster entry.
type BackendConfig struct {
	ID                string `yaml:"id"`
	DisplayName       string `yaml:"display_name"`
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	BaseURL           string `yaml:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// SeverityValue holds misspelling_severity as written: a level name such as
// "medium" or a probability such as 0.25.
type SeverityValue string

// UnmarshalYAML accepts any scalar.
func (v *SeverityValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: misspelling_severity must be a level name or a number", node.Line)
	}
	*v = SeverityValue(node.Value)
	return nil
}
