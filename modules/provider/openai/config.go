package openai

import (
	"fmt"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

const defaultModelName = "gpt-4o"

// Config holds the YAML-decoded configuration for the module.
type Config struct {
	APIKey      string   `yaml:"api_key"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	Timeout     string   `yaml:"timeout"`
}

// defaults fills zero-value fields.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModelName
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
}

// parsedTimeout assumes the value passed validateTimeout.
func (c *Config) parsedTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (c *Config) validateTimeout() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("provider.openai: invalid timeout %q: %w", c.Timeout, err)
	}
	return nil
}
