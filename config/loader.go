package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadConfig reads filePath, expands environment variables, applies
// defaults, and validates the result into dst.
func loadConfig(filePath string, dst *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", filePath, err)
	}
	return loadConfigFromString(string(data), dst)
}

// loadConfigFromString parses yamlContent into dst, expanding environment
// variables first so values like "${ANTHROPIC_API_KEY}" resolve before
// validation.
func loadConfigFromString(yamlContent string, dst *Config) error {
	_ = LoadEnvFiles()

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	expanded := ExpandEnvVarsInData(raw)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return fmt.Errorf("re-encoding expanded config: %w", err)
	}
	if err := yaml.Unmarshal(reencoded, dst); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	dst.SetDefaults()
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
