package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfig = `version: 1
dataset_path: "eval_data.json"
rows_field: "rows"
batch_size: 2
total_item_limit: 0
concurrency: 4
seed: 42
misspelling_severity: medium
misspelling_strategy: random_char
preserve_case: false
max_retries: 5
max_tokens: 1000
output_path: "results/model_comparison_results.json"
duckdb_path: ""

model_roster:
  - id: openai
    display_name: OpenAI
    provider: openai
    model: gpt-3.5-turbo
    api_key_env: OPENAI_API_KEY
  - id: groq
    display_name: Groq
    provider: groq
    model: llama-3.3-70b-versatile
    api_key_env: GROQ_API_KEY
    requests_per_minute: 30
`

const sampleDataset = `{
  "rows": [
    {
      "row_idx": 0,
      "row": {
        "input_query": "Which planet is known as the Red Planet? A) Venus B) Mars C) Jupiter D) Saturn",
        "expected_answer": "B"
      }
    }
  ]
}
`

// Scaffold writes a starter config and, when absent, a sample dataset next to it.
func Scaffold(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(configPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", configPath)
		}
		return fmt.Errorf("config file already exists at %q", configPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	baseDir := filepath.Dir(configPath)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	datasetPath := filepath.Join(baseDir, "eval_data.json")
	if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
		if err := os.WriteFile(datasetPath, []byte(sampleDataset), 0o644); err != nil {
			return fmt.Errorf("write sample dataset: %w", err)
		}
	}
	return nil
}
