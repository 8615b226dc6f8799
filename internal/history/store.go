// Package history keeps a local journal of sync runs in SQLite, so the
// operator can see what the robot has been doing between interactive
// sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/clinicops/etransfer-sync/internal/model"
)

// Store records and lists sync runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens or creates the journal database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("history database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the journal database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts one finished run. A run that arrives without an id is
// assigned one.
func (s *Store) RecordRun(ctx context.Context, run *model.SyncRun) error {
	if run == nil {
		return fmt.Errorf("cannot record a nil run")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, mode, status, error,
			started_at, finished_at,
			messages_found, parsed, low_confidence, duplicates, new_rows, appended
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), string(run.Status), run.Error,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.MessagesFound, run.Parsed, run.LowConfidence,
		run.Duplicates, run.NewRows, run.Appended,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, status, error, started_at, finished_at,
		       messages_found, parsed, low_confidence, duplicates, new_rows, appended
		FROM sync_runs
		ORDER BY started_at DESC, created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.SyncRun
	for rows.Next() {
		var run model.SyncRun
		var mode, status string
		if err := rows.Scan(
			&run.ID, &mode, &status, &run.Error,
			&run.StartedAt, &run.FinishedAt,
			&run.MessagesFound, &run.Parsed, &run.LowConfidence,
			&run.Duplicates, &run.NewRows, &run.Appended,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Mode = model.RunMode(mode)
		run.Status = model.RunStatus(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}
