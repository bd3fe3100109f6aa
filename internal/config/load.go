package config

import (
	"fmt"
	"os"

	"typobench/internal/spec"
)

// Load reads a config file and returns it normalized, validated and with
// dataset, output and DuckDB paths made absolute against the project root.
func Load(path string) (spec.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := spec.ParseConfig(data)
	if err != nil {
		return spec.Config{}, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := BaseDirFromConfigPath(path)
	Normalize(&cfg)
	if err := Validate(&cfg, baseDir); err != nil {
		return spec.Config{}, err
	}
	ResolvePaths(&cfg, baseDir)
	return cfg, nil
}
