package gateway

import "time"

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// defaults fills zero values.
//
// WriteTimeout applies to the whole response, which would sever
// long-lived streams; streaming endpoints reset their deadline per
// message instead.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// AuthConfig configures bearer auth for the admin surface.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// IsConfigured reports whether auth is enabled.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != ""
}
