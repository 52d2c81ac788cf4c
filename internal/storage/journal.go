// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/stdqa/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed      = errors.New("journal is closed")
	ErrInvalidPath = errors.New("invalid journal path")
)

// maxStoredRunes bounds question and summary text kept per row.
const maxStoredRunes = 500

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one recorded ask call.
type Entry struct {
	ID         int64
	At         time.Time
	SessionID  string
	Question   string
	OK         bool
	Error      string
	Summary    string
	StatusCode int
	Latency    time.Duration
}

// =============================================================================
// JOURNAL
// =============================================================================

// Journal records ask calls in SQLite. Safe for concurrent use.
type Journal struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, errors.Wrap(err, "create journal directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}

	// SQLite allows one writer; a single connection also keeps :memory:
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=2000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "set %q", pragma)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize journal schema")
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	if _, err := j.db.Exec(Schema); err != nil {
		return err
	}
	_, err := j.db.Exec(InitMetadata)
	return err
}

// Path returns the database path.
func (j *Journal) Path() string {
	return j.path
}

// Record inserts one entry. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	if e.At.IsZero() {
		e.At = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO asks (asked_at, session_id, question, ok, error, summary, status_code, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixMilli(),
		e.SessionID,
		util.TruncateRunes(e.Question, maxStoredRunes),
		boolToInt(e.OK),
		e.Error,
		util.TruncateRunes(e.Summary, maxStoredRunes),
		e.StatusCode,
		e.Latency.Milliseconds(),
	)
	return errors.Wrap(err, "record ask")
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, asked_at, session_id, question, ok, error, summary, status_code, latency_ms
		 FROM asks ORDER BY asked_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "query journal")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			at, latMs int64
			ok        int
		)
		if err := rows.Scan(&e.ID, &at, &e.SessionID, &e.Question, &ok, &e.Error, &e.Summary, &e.StatusCode, &latMs); err != nil {
			return nil, errors.Wrap(err, "scan journal row")
		}
		e.At = time.UnixMilli(at)
		e.OK = ok != 0
		e.Latency = time.Duration(latMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "iterate journal")
}

// Count returns the number of recorded asks.
func (j *Journal) Count(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrClosed
	}

	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM asks`).Scan(&n)
	return n, errors.Wrap(err, "count journal")
}

// Prune deletes entries older than before and returns how many went.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrClosed
	}

	res, err := j.db.ExecContext(ctx, `DELETE FROM asks WHERE asked_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "prune journal")
	}
	return res.RowsAffected()
}

// Close closes the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
