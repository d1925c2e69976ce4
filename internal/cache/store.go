// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache remembers extraction results in SQLite so unchanged course
// files and announcements are not sent to the model again on the next run.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// DefaultPath is the cache database location when none is configured.
const DefaultPath = ".cache/extractions.db"

// Kind distinguishes the source a cached result came from.
type Kind string

const (
	KindFile         Kind = "file"
	KindAnnouncement Kind = "announcement"
)

// Key identifies one extraction. Version is the source's updated_at (files)
// or posted_at (announcements); a new version misses the cache.
type Key struct {
	Kind     Kind
	CourseID int64
	SourceID int64
	Version  string
}

// Store is the extraction cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS extractions (
			kind TEXT NOT NULL,
			course_id INTEGER NOT NULL,
			source_id INTEGER NOT NULL,
			version TEXT NOT NULL,
			deadlines TEXT NOT NULL,
			extracted_at TEXT NOT NULL,
			PRIMARY KEY (kind, course_id, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_extractions_course ON extractions(course_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached deadlines for key. ok is false when the source has
// never been extracted or its version changed.
func (s *Store) Get(ctx context.Context, key Key) (deadlines []types.Deadline, ok bool, err error) {
	var version, data string
	err = s.db.QueryRowContext(ctx,
		`SELECT version, deadlines FROM extractions WHERE kind = ? AND course_id = ? AND source_id = ?`,
		string(key.Kind), key.CourseID, key.SourceID,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}
	if version != key.Version {
		return nil, false, nil
	}

	if err := json.Unmarshal([]byte(data), &deadlines); err != nil {
		return nil, false, fmt.Errorf("decoding cached deadlines: %w", err)
	}
	if deadlines == nil {
		deadlines = []types.Deadline{}
	}
	return deadlines, true, nil
}

// Put records the deadlines extracted for key, replacing any older version.
// An empty result is cached too so sources without deadlines are skipped.
func (s *Store) Put(ctx context.Context, key Key, deadlines []types.Deadline) error {
	if deadlines == nil {
		deadlines = []types.Deadline{}
	}
	data, err := json.Marshal(deadlines)
	if err != nil {
		return fmt.Errorf("encoding deadlines: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extractions (kind, course_id, source_id, version, deadlines, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, course_id, source_id) DO UPDATE SET
			version = excluded.version,
			deadlines = excluded.deadlines,
			extracted_at = excluded.extracted_at`,
		string(key.Kind), key.CourseID, key.SourceID, key.Version, string(data),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM extractions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Purge removes every entry.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM extractions`); err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}
	return nil
}
