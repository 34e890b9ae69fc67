// Package repository persists the daily search quota counter in SQLite.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/fairmeet/internal/domain/quota"
)

//go:embed schema.sql
var schema string

const defaultBusyTimeout = 5 * time.Second

// SQLiteStore implements quota.Store. Each day keeps its own row so the
// latest row is the live counter and older rows remain as history.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	now         func() time.Time
}

var _ quota.HistoryStore = (*SQLiteStore)(nil)

// Open opens or creates the quota database at path and applies the schema.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		filepath.Clean(path), s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer keeps read-modify-write of the counter serialized.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s.db = db
	return s, nil
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the most recent day's counter, or the zero State when empty.
func (s *SQLiteStore) Load(ctx context.Context) (quota.State, error) {
	if s == nil || s.db == nil {
		return quota.State{}, ErrNotConfigured
	}
	var st quota.State
	err := s.db.QueryRowContext(ctx,
		`SELECT date_key, call_count FROM quota_usage ORDER BY date_key DESC LIMIT 1`,
	).Scan(&st.DateKey, &st.CallCount)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.State{}, nil
	}
	if err != nil {
		return quota.State{}, fmt.Errorf("load quota usage: %w", err)
	}
	return st, nil
}

// Save upserts the counter for st.DateKey.
func (s *SQLiteStore) Save(ctx context.Context, st quota.State) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(st.DateKey) == "" || st.CallCount < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidState, st)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO quota_usage (date_key, call_count, updated_at) VALUES (?, ?, ?)
ON CONFLICT(date_key) DO UPDATE SET call_count = excluded.call_count, updated_at = excluded.updated_at
`, st.DateKey, st.CallCount, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save quota usage: %w", err)
	}
	return nil
}

// History returns up to limit days of usage, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]quota.State, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT date_key, call_count FROM quota_usage ORDER BY date_key DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list quota usage: %w", err)
	}
	defer rows.Close()

	out := make([]quota.State, 0, limit)
	for rows.Next() {
		var st quota.State
		if err := rows.Scan(&st.DateKey, &st.CallCount); err != nil {
			return nil, fmt.Errorf("scan quota usage: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quota usage: %w", err)
	}
	return out, nil
}
