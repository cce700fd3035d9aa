// Package sqlite implements the memory.sqlite module, a SQLite-backed
// transcript store. It records stream traffic per request using
// modernc.org/sqlite (pure Go, no CGO) with WAL mode, and prunes old
// entries on a cron schedule.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codetalcott/llmux/internal/core"
	"github.com/codetalcott/llmux/internal/transcript"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module         = (*Module)(nil)
	_ core.Configurable   = (*Module)(nil)
	_ core.Provisioner    = (*Module)(nil)
	_ core.Validator      = (*Module)(nil)
	_ core.Starter        = (*Module)(nil)
	_ core.Stopper        = (*Module)(nil)
	_ transcript.Recorder = (*store)(nil)
)

// Module implements the SQLite transcript store.
type Module struct {
	config Config
	db     *sql.DB
	logger *slog.Logger
	store  *store
	cron   *cron.Cron
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}
	if dir := filepath.Dir(m.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := open(m.config.Path, m.config.walEnabled(), m.config.BusyTimeout)
	if err != nil {
		return err
	}

	m.db = db
	m.store = &store{db: db}

	ctx.RegisterService(transcript.ServiceName, m.store)

	m.logger.Info("sqlite transcript store provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
		"retention_days", m.config.retentionDays(),
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Start implements core.Starter. It schedules the retention sweep;
// retention_days 0 means keep everything, so nothing is scheduled.
func (m *Module) Start() error {
	if m.config.retentionDays() <= 0 {
		return nil
	}

	m.cron = cron.New()
	_, err := m.cron.AddFunc(m.config.SweepSchedule, m.sweep)
	if err != nil {
		return fmt.Errorf("sqlite: schedule retention sweep %q: %w", m.config.SweepSchedule, err)
	}
	m.cron.Start()
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.cron != nil {
		stopped := m.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	m.logger.Info("sqlite transcript store stopping")
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// sweep deletes entries older than the retention window.
func (m *Module) sweep() {
	n, err := m.store.Prune(context.Background(), m.config.retentionDays())
	if err != nil {
		m.logger.Error("transcript retention sweep failed", "error", err)
		return
	}
	if n > 0 {
		m.logger.Info("transcript retention sweep", "deleted", n)
	}
}

// Store returns the transcript recorder.
func (m *Module) Store() transcript.Recorder {
	return m.store
}

// open configures a single-connection SQLite handle and migrates the
// schema. SQLite serialises writes; one connection keeps PRAGMAs
// consistent across the pool.
func open(path string, wal bool, busyTimeout int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.TODO()
	if wal {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
