package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config path constants used by the CLI and loaders.
const (
	ConfigFileName    = "typobench.yml"
	ConfigDirName     = ".typobench"
	ConfigDirFileName = "config.yml"
)

// ConfigPath returns the default config file path under root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFileName)
}

// BaseDirFromConfigPath returns the directory relative paths resolve against.
func BaseDirFromConfigPath(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// FindConfigPath searches upward from a directory for typobench.yml or
// .typobench/config.yml.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	dir = abs

	for {
		candidates := []string{
			filepath.Join(dir, ConfigFileName),
			filepath.Join(dir, ConfigDirName, ConfigDirFileName),
		}
		for _, candidate := range candidates {
			info, err := os.Stat(candidate)
			if err == nil {
				if info.IsDir() {
					return "", fmt.Errorf("config path %q is a directory", candidate)
				}
				return candidate, nil
			}
			if !os.IsNotExist(err) {
				return "", fmt.Errorf("stat config path %q: %w", candidate, err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or parent directories", ConfigFileName, abs)
		}
		dir = parent
	}
}
