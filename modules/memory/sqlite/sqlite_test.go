package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/codetalcott/llmux/internal/transcript"
)

func testStore(t *testing.T) *store {
	t.Helper()

	db, err := open(filepath.Join(t.TempDir(), "transcripts.db"), true, defaultBusyTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &store{db: db}
}

func TestRecordAndList(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	ctx := context.Background()

	entries := []transcript.Entry{
		{RequestID: "req-1", Provider: "anthropic", SessionID: "s1", Kind: "content", Content: "hel"},
		{RequestID: "req-1", Provider: "anthropic", SessionID: "s1", Kind: "content", Content: "lo"},
		{RequestID: "req-1", Provider: "anthropic", SessionID: "s1", Kind: "result", Content: "hello"},
		{RequestID: "req-2", Provider: "openai", Kind: "error", Content: "rate limited"},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.ListByRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if got[0].Content != "hel" || got[2].Kind != "result" {
		t.Errorf("entries out of order: %+v", got)
	}
	if got[0].Provider != "anthropic" || got[0].SessionID != "s1" {
		t.Errorf("entry meta = %+v", got[0])
	}
}

func TestListUnknownRequest(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	got, err := s.ListByRequest(context.Background(), "absent")
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	ctx := context.Background()

	old := transcript.Entry{
		RequestID: "req-old",
		Kind:      "content",
		CreatedAt: time.Now().UTC().AddDate(0, 0, -30),
	}
	fresh := transcript.Entry{RequestID: "req-new", Kind: "content"}
	if err := s.Record(ctx, old); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, fresh); err != nil {
		t.Fatalf("Record: %v", err)
	}

	n, err := s.Prune(ctx, 7)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d entries, want 1", n)
	}

	remaining, err := s.ListByRequest(ctx, "req-new")
	if err != nil {
		t.Fatalf("ListByRequest: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("fresh entry missing after prune")
	}
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	db, err := open(filepath.Join(t.TempDir(), "t.db"), true, defaultBusyTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	c := &Config{}
	c.defaults()

	if !c.walEnabled() {
		t.Error("WAL not enabled by default")
	}
	if c.BusyTimeout != defaultBusyTimeout {
		t.Errorf("BusyTimeout = %d", c.BusyTimeout)
	}
	if c.retentionDays() != defaultRetentionDays {
		t.Errorf("retentionDays() = %d", c.retentionDays())
	}
	if c.SweepSchedule != defaultSweep {
		t.Errorf("SweepSchedule = %q", c.SweepSchedule)
	}
}

func TestRetentionZeroSurvivesDefaults(t *testing.T) {
	t.Parallel()

	zero := 0
	c := &Config{RetentionDays: &zero}
	c.defaults()

	if c.retentionDays() != 0 {
		t.Fatalf("explicit retention_days=0 became %d", c.retentionDays())
	}
	if err := c.validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestRetentionZeroSkipsSweep(t *testing.T) {
	t.Parallel()

	db, err := open(filepath.Join(t.TempDir(), "t.db"), true, defaultBusyTimeout)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	zero := 0
	m := &Module{
		config: Config{RetentionDays: &zero},
		db:     db,
		store:  &store{db: db},
		logger: slog.Default(),
	}
	m.config.defaults()

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = m.Stop(context.Background()) }()

	if m.cron != nil {
		t.Error("sweep scheduled despite retention_days=0")
	}
}
