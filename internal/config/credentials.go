package config

import (
	"fmt"
	"strings"

	"typobench/internal/spec"
)

// CheckCredentials verifies every roster entry has its API key available.
func CheckCredentials(cfg spec.Config, lookupEnv func(string) (string, bool)) error {
	var issues []Issue
	for i, entry := range cfg.ModelRoster {
		if entry.APIKeyEnv == "" {
			continue
		}
		value, ok := lookupEnv(entry.APIKeyEnv)
		if !ok || strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("model_roster[%d].api_key_env", i),
				Message: fmt.Sprintf("%s is not set", entry.APIKeyEnv),
			})
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
