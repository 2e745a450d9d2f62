// Package config handles Navvy configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/navvy/config.yaml, /etc/navvy/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "navvy", "config.yaml"))
	}

	paths = append(paths, "/etc/navvy/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Navvy configuration.
type Config struct {
	Models    ModelsConfig    `yaml:"models"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Store     StoreConfig     `yaml:"store"`
	Run       RunConfig       `yaml:"run"`
	LogLevel  string          `yaml:"log_level"`
}

// ModelsConfig defines model routing settings.
type ModelsConfig struct {
	// Default is the model used when a run request names none.
	Default string `yaml:"default"`
	// Completions optionally names a cheaper model for the nested
	// create_chat_completion capability. Empty reuses Default.
	Completions string `yaml:"completions"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

// OpenAIConfig defines OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SandboxConfig defines the local execution environment.
type SandboxConfig struct {
	// Dir is the sandbox root. Empty disables sandboxed capabilities.
	Dir string `yaml:"dir"`
	// CommandTimeoutSec bounds each command (default 60).
	CommandTimeoutSec int `yaml:"command_timeout_sec"`
}

// StoreConfig selects conversation persistence.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file. Ignored for memory.
	Path string `yaml:"path"`
}

// RunConfig defines per-run behavior defaults.
type RunConfig struct {
	// MaxAttempts caps model attempts per run. Zero means unlimited.
	MaxAttempts int `yaml:"max_attempts"`
	// Compaction enables history compaction before each model call.
	Compaction bool `yaml:"compaction"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "", "memory", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Default: "claude-sonnet-4-20250514",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
		Sandbox: SandboxConfig{
			CommandTimeoutSec: 60,
		},
		LogLevel: "info",
	}
}
