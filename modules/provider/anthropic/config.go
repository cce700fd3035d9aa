package anthropic

import "time"

// defaultModel is pinned to a dated release for reproducibility.
const defaultModel = "claude-sonnet-4-5-20250929"

// defaultMaxTokens is the output budget used when neither the request
// nor the config specifies one.
const defaultMaxTokens = 4096

// defaultTimeout bounds the initial connection phase. Streaming reads
// are not affected once the first byte arrives.
const defaultTimeout = 30 * time.Second

// Config holds the YAML-decoded configuration for the module.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// defaults fills zero-value fields.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}
