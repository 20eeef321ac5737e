// Package config loads the service configuration: one immutable value built
// at startup from defaults overlaid with an optional YAML file. Credentials
// are never stored here; login configs reference them by environment key and
// resolve them at attempt time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration. Loaded once, passed explicitly
// into constructors, immutable afterwards.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// StateDir is where per-site auth state files live.
	StateDir string `yaml:"state_dir"`

	// Headless controls whether browsing sessions show a window.
	Headless bool `yaml:"headless"`

	// NavigationTimeoutMs bounds page navigations, in milliseconds.
	NavigationTimeoutMs float64 `yaml:"navigation_timeout_ms"`

	LLM LLMConfig `yaml:"llm"`
}

// LLMConfig configures the extraction agent.
type LLMConfig struct {
	// Model is the chat model used for extraction and source planning.
	Model string `yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is rarely set here; prefer the OPENAI_API_KEY environment
	// variable.
	APIKey string `yaml:"api_key"`

	// MaxInputTokens bounds the HTML handed to the model.
	MaxInputTokens int `yaml:"max_input_tokens"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:          ":8080",
		StateDir:            "./browser_data",
		Headless:            true,
		NavigationTimeoutMs: 30000,
		LLM: LLMConfig{
			Model: "gpt-4.1-mini",
		},
	}
}

// Load builds the configuration from defaults, overlaid with the YAML file
// at path when one is given. A missing file at an explicitly given path is
// an error; an empty path just means defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.NavigationTimeoutMs <= 0 {
		return fmt.Errorf("navigation_timeout_ms must be positive")
	}
	return nil
}
