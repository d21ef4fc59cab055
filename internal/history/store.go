// Package history keeps a SQLite record of manifest runs.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/filesnap/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded manifest run.
type Run struct {
	ID           string
	BaseDir      string
	ManifestPath string
	FileCount    int
	Fingerprint  string
	PatternText  string
	Hashed       bool
	Status       string
	ErrorKind    string
	ErrorMessage string
	Duration     time.Duration
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Succeeded reports whether the run wrote its manifest.
func (r *Run) Succeeded() bool {
	return r.Status == models.StatusSucceeded
}

// Store manages the SQLite run history database
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// busy_timeout must come first so the rest wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts run, assigning a new UUID when run.ID is empty.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt.Add(-run.Duration)
	}

	query := `INSERT INTO runs
		(id, base_dir, manifest_path, file_count, fingerprint, pattern_text, hashed, status, error_kind, error_message, duration_ms, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.BaseDir,
		run.ManifestPath,
		run.FileCount,
		run.Fingerprint,
		run.PatternText,
		run.Hashed,
		run.Status,
		run.ErrorKind,
		run.ErrorMessage,
		run.Duration.Milliseconds(),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = `SELECT id, base_dir, manifest_path, file_count, fingerprint, pattern_text, hashed, status, error_kind, error_message, duration_ms, started_at, finished_at
		FROM runs`

// ListRuns returns up to limit runs, most recent first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := selectRuns + ` ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// LatestSuccessful returns the newest successful run that wrote manifestPath,
// or nil when there is none.
func (s *Store) LatestSuccessful(ctx context.Context, manifestPath string) (*Run, error) {
	query := selectRuns + ` WHERE manifest_path = ? AND status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, manifestPath, models.StatusSucceeded)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var fingerprint, patternText, errorKind, errorMessage sql.NullString
	var durationMs sql.NullInt64

	err := row.Scan(
		&run.ID,
		&run.BaseDir,
		&run.ManifestPath,
		&run.FileCount,
		&fingerprint,
		&patternText,
		&run.Hashed,
		&run.Status,
		&errorKind,
		&errorMessage,
		&durationMs,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan run row: %w", err)
	}

	run.Fingerprint = fingerprint.String
	run.PatternText = patternText.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.Duration = time.Duration(durationMs.Int64) * time.Millisecond
	return run, nil
}
