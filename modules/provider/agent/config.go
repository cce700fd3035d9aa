package agent

// defaultBinary is the agent CLI launched when none is configured.
const defaultBinary = "claude"

// Config holds the YAML-decoded configuration for the module.
type Config struct {
	// Binary is the CLI executable, resolved through PATH unless
	// absolute.
	Binary string `yaml:"binary"`

	// Model is passed as --model when set; empty leaves the CLI's own
	// default in place.
	Model string `yaml:"model"`

	// WorkDir is the subprocess working directory.
	WorkDir string `yaml:"work_dir"`

	// PermissionMode is the default tool-permission mode, overridable
	// per request.
	PermissionMode string `yaml:"permission_mode"`

	// AllowedTools and DisallowedTools are default tool restrictions,
	// overridable per request.
	AllowedTools    []string `yaml:"allowed_tools"`
	DisallowedTools []string `yaml:"disallowed_tools"`

	// Env holds extra environment variables for every run.
	Env map[string]string `yaml:"env"`
}

// defaults fills zero-value fields.
func (c *Config) defaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
}
