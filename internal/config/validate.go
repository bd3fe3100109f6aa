package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"typobench/internal/backend"
	"typobench/internal/perturb"
	"typobench/internal/spec"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config. Relative paths resolve against baseDir.
func Validate(cfg *spec.Config, baseDir string) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if cfg.Version == 0 {
		add("version", "is required")
	} else if cfg.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}

	if baseDir == "" {
		baseDir = "."
	}
	if cfg.DatasetPath == "" {
		add("dataset_path", "is required")
	} else {
		info, err := os.Stat(resolvePath(baseDir, cfg.DatasetPath))
		if err != nil {
			add("dataset_path", fmt.Sprintf("file not found at %q", cfg.DatasetPath))
		} else if info.IsDir() {
			add("dataset_path", fmt.Sprintf("path %q is a directory", cfg.DatasetPath))
		}
	}

	if cfg.BatchSize < 1 {
		add("batch_size", "must be >= 1")
	}
	if cfg.TotalItemLimit < 0 {
		add("total_item_limit", "must be >= 0")
	}
	if cfg.Concurrency < 1 {
		add("concurrency", "must be >= 1")
	}
	if _, err := perturb.ParseSeverity(string(cfg.MisspellingSeverity)); err != nil {
		add("misspelling_severity", err.Error())
	}
	if _, err := perturb.ParseStrategy(cfg.MisspellingStrategy); err != nil {
		add("misspelling_strategy", fmt.Sprintf("unsupported strategy %q", cfg.MisspellingStrategy))
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		add("max_retries", "must be >= 0")
	}
	if cfg.MaxTokens < 0 {
		add("max_tokens", "must be >= 0")
	}
	if cfg.OutputPath == "" {
		add("output_path", "is required")
	}
	if cfg.PromptTemplate != "" && !strings.Contains(cfg.PromptTemplate, "{{query}}") {
		add("prompt_template", "must contain {{query}}")
	}

	if len(cfg.ModelRoster) == 0 {
		add("model_roster", "at least one backend is required")
	}
	ids := map[string]struct{}{}
	for i, entry := range cfg.ModelRoster {
		fieldPrefix := fmt.Sprintf("model_roster[%d]", i)
		if entry.ID == "" {
			add(fieldPrefix+".id", "is required")
		} else if _, exists := ids[entry.ID]; exists {
			add("model_roster.id", fmt.Sprintf("duplicate id %q", entry.ID))
		} else {
			ids[entry.ID] = struct{}{}
		}
		if entry.Provider == "" {
			add(fieldPrefix+".provider", "is required")
		} else if !slices.Contains(backend.Kinds(), entry.Provider) {
			add(fieldPrefix+".provider", fmt.Sprintf("unsupported provider %q", entry.Provider))
		}
		if entry.Model == "" {
			add(fieldPrefix+".model", "is required")
		}
		if entry.APIKeyEnv == "" {
			add(fieldPrefix+".api_key_env", "is required")
		}
		if entry.Provider == backend.KindOpenAICompatible && entry.BaseURL == "" {
			add(fieldPrefix+".base_url", "is required for openai_compatible")
		}
		if entry.RequestsPerMinute < 0 {
			add(fieldPrefix+".requests_per_minute", "must be >= 0")
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ResolvePaths makes dataset, output, and DuckDB paths absolute relative to baseDir.
func ResolvePaths(cfg *spec.Config, baseDir string) {
	if baseDir == "" {
		return
	}
	cfg.DatasetPath = resolvePath(baseDir, cfg.DatasetPath)
	cfg.OutputPath = resolvePath(baseDir, cfg.OutputPath)
	if cfg.DuckDBPath != "" {
		cfg.DuckDBPath = resolvePath(baseDir, cfg.DuckDBPath)
	}
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
