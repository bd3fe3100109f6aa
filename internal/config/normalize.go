package config

import (
	"strings"

	"typobench/internal/backend"
	"typobench/internal/perturb"
	"typobench/internal/question"
	"typobench/internal/ratelimit"
	"typobench/internal/spec"
)

// Defaults applied by Normalize.
const (
	DefaultBatchSize   = 2
	DefaultConcurrency = 4
	DefaultMaxTokens   = 1000
	DefaultOutputPath  = "results/model_comparison_results.json"
)

// Normalize trims values and fills defaults.
func Normalize(cfg *spec.Config) {
	cfg.DatasetPath = strings.TrimSpace(cfg.DatasetPath)
	cfg.RowsField = strings.TrimSpace(cfg.RowsField)
	if cfg.RowsField == "" {
		cfg.RowsField = question.DefaultRowsField
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	cfg.MisspellingSeverity = spec.SeverityValue(strings.TrimSpace(string(cfg.MisspellingSeverity)))
	if cfg.MisspellingSeverity == "" {
		cfg.MisspellingSeverity = perturb.DefaultLevel
	}
	cfg.MisspellingStrategy = strings.ToLower(strings.TrimSpace(cfg.MisspellingStrategy))
	if cfg.MisspellingStrategy == "" {
		cfg.MisspellingStrategy = string(perturb.DefaultStrategy)
	}
	if cfg.MaxRetries == nil {
		retries := ratelimit.DefaultMaxRetries
		cfg.MaxRetries = &retries
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	cfg.OutputPath = strings.TrimSpace(cfg.OutputPath)
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	cfg.DuckDBPath = strings.TrimSpace(cfg.DuckDBPath)
	for i := range cfg.ModelRoster {
		entry := &cfg.ModelRoster[i]
		entry.ID = strings.TrimSpace(entry.ID)
		entry.DisplayName = strings.TrimSpace(entry.DisplayName)
		if entry.DisplayName == "" {
			entry.DisplayName = entry.ID
		}
		entry.Provider = strings.ToLower(strings.TrimSpace(entry.Provider))
		entry.Model = strings.TrimSpace(entry.Model)
		entry.APIKeyEnv = strings.TrimSpace(entry.APIKeyEnv)
		if entry.APIKeyEnv == "" {
			entry.APIKeyEnv = backend.DefaultAPIKeyEnv(entry.Provider)
		}
		entry.BaseURL = strings.TrimSpace(entry.BaseURL)
	}
}
