package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codetalcott/llmux/internal/transcript"
)

// store implements transcript.Recorder over a single-connection SQLite
// handle.
type store struct {
	db *sql.DB
}

// Record implements transcript.Recorder.
func (s *store) Record(ctx context.Context, e transcript.Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (request_id, provider, session_id, kind, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Provider, e.SessionID, e.Kind, e.Content,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: record transcript: %w", err)
	}
	return nil
}

// ListByRequest returns a request's entries in recorded order.
func (s *store) ListByRequest(ctx context.Context, requestID string) ([]transcript.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, provider, session_id, kind, content, created_at
		 FROM transcripts WHERE request_id = ? ORDER BY id`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list transcripts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []transcript.Entry
	for rows.Next() {
		var e transcript.Entry
		var createdAt string
		if err := rows.Scan(&e.RequestID, &e.Provider, &e.SessionID, &e.Kind, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan transcript: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention window and returns the
// number removed.
func (s *store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE created_at < ?`,
		cutoff.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune transcripts: %w", err)
	}
	return res.RowsAffected()
}
