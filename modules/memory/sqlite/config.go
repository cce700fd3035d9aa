package sqlite

import "fmt"

const (
	defaultBusyTimeout   = 5000
	defaultDBFile        = "transcripts.db"
	defaultRetentionDays = 7
	defaultSweep         = "@hourly"
)

// Config holds the transcript store configuration.
type Config struct {
	// Path is the database file path. Defaults to
	// {DataDir}/transcripts.db.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to
	// true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults
	// to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// RetentionDays is how long entries are kept. Unset means 7;
	// explicit zero disables the sweep entirely.
	RetentionDays *int `yaml:"retention_days"`

	// SweepSchedule is the cron expression for the retention sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
}

func (c *Config) defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.RetentionDays == nil {
		d := defaultRetentionDays
		c.RetentionDays = &d
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = defaultSweep
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) retentionDays() int {
	if c.RetentionDays == nil {
		return defaultRetentionDays
	}
	return *c.RetentionDays
}

func (c *Config) validate() error {
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.retentionDays() < 0 {
		return fmt.Errorf("sqlite: retention_days must be non-negative, got %d", c.retentionDays())
	}
	return nil
}
