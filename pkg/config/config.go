// Package config provides YAML-based configuration loading with variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
func Load[T any](filename string, target *T) error {
	return LoadWith(filename, target, os.Getenv)
}

// LoadWith loads configuration from a YAML file, resolving $VAR and ${VAR}
// references through mapping. JSON documents are accepted as YAML.
func LoadWith[T any](filename string, target *T, mapping func(string) string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.Expand(string(data), mapping)

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// Save writes cfg as YAML, creating the parent directory. An existing file
// is left untouched and reported as an error.
func Save[T any](filename string, cfg *T) error {
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("config file %s: %w", filename, os.ErrExist)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}
