// Package sqlite provides a SQLite-backed history store using the
// modernc.org/sqlite driver. It needs no cgo and suits embedded hosts
// that want a durable audit trail in a single file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/xraph/invoke/history"
)

// Compile-time interface check.
var _ history.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS invoke_history (
	id            TEXT PRIMARY KEY,
	subject       TEXT NOT NULL DEFAULT '',
	action        TEXT NOT NULL,
	command       TEXT NOT NULL DEFAULT '',
	command_group TEXT NOT NULL DEFAULT '',
	trigger_ctx   TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	severity      TEXT NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	metadata      TEXT,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoke_history_command ON invoke_history (command);
CREATE INDEX IF NOT EXISTS idx_invoke_history_created ON invoke_history (created_at);
`

// Store persists history records in a SQLite database. The Store owns
// the *sql.DB it opened; Close closes it.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history/sqlite: open: %w", err)
	}
	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history/sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Append implements history.Store.
func (s *Store) Append(ctx context.Context, r *history.Record) error {
	var meta []byte
	if len(r.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("history/sqlite: marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoke_history
			(id, subject, action, command, command_group, trigger_ctx, outcome, severity, reason, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Subject.String(), r.Action, r.Command, r.Group, r.Trigger,
		r.Outcome, r.Severity, r.Reason, nullableString(meta), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("history/sqlite: append: %w", err)
	}
	return nil
}

// List implements history.Store.
func (s *Store) List(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	var (
		conds []string
		args  []any
	)
	if f.Command != "" {
		conds = append(conds, "command = ?")
		args = append(args, f.Command)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}

	q := `SELECT id, subject, action, command, command_group, trigger_ctx, outcome, severity, reason, metadata, created_at
		FROM invoke_history`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history/sqlite: list: %w", err)
	}
	defer rows.Close()

	var out []*history.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history/sqlite: list rows: %w", err)
	}
	return out, nil
}

// Purge implements history.Store.
func (s *Store) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM invoke_history WHERE created_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("history/sqlite: purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history/sqlite: purge rows affected: %w", err)
	}
	return int(n), nil
}

// Close implements history.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

// ── helpers ──────────────────────────────────────────────────────

func scanRecord(rows *sql.Rows) (*history.Record, error) {
	var (
		r          history.Record
		idStr      string
		subjectStr string
		meta       sql.NullString
		createdAt  int64
	)
	if err := rows.Scan(&idStr, &subjectStr, &r.Action, &r.Command, &r.Group, &r.Trigger,
		&r.Outcome, &r.Severity, &r.Reason, &meta, &createdAt); err != nil {
		return nil, fmt.Errorf("history/sqlite: scan: %w", err)
	}
	if err := r.ID.UnmarshalText([]byte(idStr)); err != nil {
		return nil, fmt.Errorf("history/sqlite: parse id: %w", err)
	}
	if err := r.Subject.UnmarshalText([]byte(subjectStr)); err != nil {
		return nil, fmt.Errorf("history/sqlite: parse subject: %w", err)
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
			return nil, fmt.Errorf("history/sqlite: unmarshal metadata: %w", err)
		}
	}
	r.CreatedAt = time.Unix(0, createdAt)
	return &r, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
