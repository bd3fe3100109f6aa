package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"typobench/internal/spec"
)

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "eval_data.json")
	if err := os.WriteFile(path, []byte(`{"rows":[]}`), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func validConfig(t *testing.T) (spec.Config, string) {
	t.Helper()
	dir := t.TempDir()
	writeDataset(t, dir)
	cfg := spec.Config{
		Version:     1,
		DatasetPath: "eval_data.json",
		ModelRoster: []spec.BackendConfig{
			{ID: "openai", Provider: "openai", Model: "gpt-3.5-turbo"},
			{ID: "groq", Provider: "groq", Model: "llama-3.3-70b-versatile"},
		},
	}
	Normalize(&cfg)
	return cfg, dir
}

func issueFields(err error) []string {
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		return nil
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestNormalizeDefaults(t *testing.T) {
	cfg, _ := validConfig(t)
	if cfg.BatchSize != DefaultBatchSize || cfg.Concurrency != DefaultConcurrency || cfg.MaxTokens != DefaultMaxTokens {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RowsField != "rows" || cfg.MisspellingSeverity != "medium" || cfg.MisspellingStrategy != "random_char" {
		t.Fatalf("unexpected perturbation defaults %+v", cfg)
	}
	if cfg.MaxRetries == nil || *cfg.MaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %v", cfg.MaxRetries)
	}
	if cfg.ModelRoster[0].APIKeyEnv != "OPENAI_API_KEY" || cfg.ModelRoster[1].APIKeyEnv != "GROQ_API_KEY" {
		t.Fatalf("unexpected key envs %+v", cfg.ModelRoster)
	}
	if cfg.ModelRoster[0].DisplayName != "openai" {
		t.Fatalf("expected display name to default to id, got %q", cfg.ModelRoster[0].DisplayName)
	}
}

// TestNormalizeKeepsExplicitZeroRetries verifies max_retries: 0 is honored.
func TestNormalizeKeepsExplicitZeroRetries(t *testing.T) {
	zero := 0
	cfg := spec.Config{MaxRetries: &zero}
	Normalize(&cfg)
	if *cfg.MaxRetries != 0 {
		t.Fatalf("expected zero retries, got %d", *cfg.MaxRetries)
	}
}

func TestValidateValidConfig(t *testing.T) {
	cfg, dir := validConfig(t)
	if err := Validate(&cfg, dir); err != nil {
		t.Fatalf("expected config to validate, got %v", err)
	}
}

// TestValidateCollectsIssues verifies every problem is reported at once.
func TestValidateCollectsIssues(t *testing.T) {
	cfg, dir := validConfig(t)
	cfg.Version = 2
	cfg.DatasetPath = "missing.json"
	cfg.BatchSize = -1
	cfg.MisspellingSeverity = "1.7"
	cfg.MisspellingStrategy = "swap"
	cfg.PromptTemplate = "no placeholder"
	cfg.ModelRoster = append(cfg.ModelRoster,
		spec.BackendConfig{ID: "openai", Provider: "mystery", Model: "m", APIKeyEnv: "K"},
		spec.BackendConfig{ID: "local", Provider: "openai_compatible", Model: "m", APIKeyEnv: "K"},
	)
	err := Validate(&cfg, dir)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	want := []string{
		"version", "dataset_path", "batch_size", "misspelling_severity", "misspelling_strategy",
		"prompt_template", "model_roster.id", "model_roster[2].provider", "model_roster[3].base_url",
	}
	fields := strings.Join(issueFields(err), ",")
	for _, field := range want {
		if !strings.Contains(fields, field) {
			t.Fatalf("expected issue for %s, got %s", field, fields)
		}
	}
}

// TestValidateUnknownSeverityNameFallsBack verifies unknown names are not errors.
func TestValidateUnknownSeverityNameFallsBack(t *testing.T) {
	cfg, dir := validConfig(t)
	cfg.MisspellingSeverity = "extreme"
	if err := Validate(&cfg, dir); err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
}

func TestValidateEmptyRoster(t *testing.T) {
	cfg, dir := validConfig(t)
	cfg.ModelRoster = nil
	if fields := issueFields(Validate(&cfg, dir)); len(fields) != 1 || fields[0] != "model_roster" {
		t.Fatalf("expected roster issue, got %v", fields)
	}
}

// TestCheckCredentials verifies missing environment variables are reported.
func TestCheckCredentials(t *testing.T) {
	cfg, _ := validConfig(t)
	env := map[string]string{"OPENAI_API_KEY": "sk-test", "GROQ_API_KEY": "  "}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	err := CheckCredentials(cfg, lookup)
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY is not set") {
		t.Fatalf("expected groq credential error, got %v", err)
	}
	env["GROQ_API_KEY"] = "gsk-test"
	if err := CheckCredentials(cfg, lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestLoadResolvesPaths verifies Load validates and resolves relative paths.
func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir)
	configPath := filepath.Join(dir, ConfigDirName, ConfigDirFileName)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := "version: 1\ndataset_path: eval_data.json\nmodel_roster:\n  - id: m\n    provider: groq\n    model: x\n"
	if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatasetPath != filepath.Join(dir, "eval_data.json") {
		t.Fatalf("unexpected dataset path %q", cfg.DatasetPath)
	}
	if cfg.OutputPath != filepath.Join(dir, DefaultOutputPath) {
		t.Fatalf("unexpected output path %q", cfg.OutputPath)
	}
}

// TestFindConfigPath verifies upward discovery of both layouts.
func TestFindConfigPath(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := FindConfigPath(nested); err == nil {
		t.Fatalf("expected missing config error")
	}
	path := ConfigPath(root)
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	found, err := FindConfigPath(nested)
	if err != nil || found != path {
		t.Fatalf("expected %q, got %q (%v)", path, found, err)
	}
}

// TestScaffoldWritesLoadableConfig verifies init output validates.
func TestScaffoldWritesLoadableConfig(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)
	if err := Scaffold(path); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load scaffolded config: %v", err)
	}
	if err := Scaffold(path); err == nil {
		t.Fatalf("expected existing config error")
	}
}
