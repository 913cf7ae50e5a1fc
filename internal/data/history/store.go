package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Build is the summary of one completed build.
type Build struct {
	Session    string
	Entry      string
	At         time.Time
	Duration   time.Duration
	Modules    int
	Edges      int
	Cycles     int
	Warnings   int
	Statements int
	Included   int
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates the database file and its schema when missing. A zero
// busyTimeout uses two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save records b; saving the same session twice overwrites it.
func (s *Store) Save(b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(b.Session) == "" {
		return fmt.Errorf("build session must not be empty")
	}
	if b.At.IsZero() {
		b.At = time.Now().UTC()
	}

	query := `
INSERT INTO builds (
  session, entry, ts_utc, duration_ms, module_count, edge_count, cycle_count,
  warning_count, statement_count, included_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session) DO UPDATE SET
  entry=excluded.entry,
  ts_utc=excluded.ts_utc,
  duration_ms=excluded.duration_ms,
  module_count=excluded.module_count,
  edge_count=excluded.edge_count,
  cycle_count=excluded.cycle_count,
  warning_count=excluded.warning_count,
  statement_count=excluded.statement_count,
  included_count=excluded.included_count
`
	return s.withRetry("save build", func() error {
		_, err := s.db.Exec(
			query,
			b.Session,
			b.Entry,
			b.At.UTC().Format(time.RFC3339Nano),
			b.Duration.Milliseconds(),
			b.Modules,
			b.Edges,
			b.Cycles,
			b.Warnings,
			b.Statements,
			b.Included,
		)
		return err
	})
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(limit int) ([]Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		return nil, nil
	}

	var rows *sql.Rows
	err := s.withRetry("load builds", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT
  session, entry, ts_utc, duration_ms, module_count, edge_count, cycle_count,
  warning_count, statement_count, included_count
FROM builds
ORDER BY ts_utc DESC, session ASC
LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builds := make([]Build, 0, limit)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			b          Build
		)
		if err := rows.Scan(
			&b.Session,
			&b.Entry,
			&tsRaw,
			&durationMS,
			&b.Modules,
			&b.Edges,
			&b.Cycles,
			&b.Warnings,
			&b.Statements,
			&b.Included,
		); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse build timestamp %q: %w", tsRaw, err)
		}
		b.At = ts.UTC()
		b.Duration = time.Duration(durationMS) * time.Millisecond
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build rows: %w", err)
	}

	return builds, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
