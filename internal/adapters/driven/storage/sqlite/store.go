package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// DBFileName is the run history database inside the state directory.
const DBFileName = "runs.db"

// Ensure Store implements the interface.
var _ driven.RunLedger = (*Store)(nil)

// Store is the SQLite run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) stateDir/runs.db and applies migrations.
func NewStore(stateDir string) (*Store, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("%w: state directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating state directory: %w", domain.ErrStorage, err)
	}

	dbPath := filepath.Join(stateDir, DBFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrStorage, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enabling foreign keys: %w", domain.ErrStorage, err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStorage, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending up migrations, recording each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_runs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Ledger ====================

// Record stores a finished run and its failures in one transaction.
func (s *Store) Record(ctx context.Context, run domain.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, succeeded, media_downloaded, media_failures,
			start_cursor, end_cursor, aborted, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			succeeded = excluded.succeeded,
			media_downloaded = excluded.media_downloaded,
			media_failures = excluded.media_failures,
			end_cursor = excluded.end_cursor,
			aborted = excluded.aborted,
			error = excluded.error
	`, run.ID, run.StartedAt.UTC(), nullTime(run.FinishedAt), run.Succeeded, run.MediaDownloaded,
		run.MediaFailures, run.StartCursor, run.EndCursor, run.Aborted, run.Error)
	if err != nil {
		return fmt.Errorf("%w: saving run: %w", domain.ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_failures WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("%w: clearing failures: %w", domain.ErrStorage, err)
	}
	for i, f := range run.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_failures (run_id, position, bookmark_id, reason) VALUES (?, ?, ?, ?)
		`, run.ID, i, f.BookmarkID, f.Reason)
		if err != nil {
			return fmt.Errorf("%w: saving failure: %w", domain.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrStorage, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, media_downloaded, media_failures,
			start_cursor, end_cursor, aborted, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing runs: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating runs: %w", domain.ErrStorage, err)
	}

	for i := range runs {
		failures, err := s.failures(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, succeeded, media_downloaded, media_failures,
			start_cursor, end_cursor, aborted, error
		FROM runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: getting run: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: getting run: %w", domain.ErrStorage, err)
		}
		return nil, domain.ErrNotFound
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	run.Failures, err = s.failures(ctx, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) failures(ctx context.Context, runID string) ([]domain.ItemFailure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bookmark_id, reason FROM run_failures WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing failures: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var failures []domain.ItemFailure
	for rows.Next() {
		var f domain.ItemFailure
		if err := rows.Scan(&f.BookmarkID, &f.Reason); err != nil {
			return nil, fmt.Errorf("%w: scanning failure: %w", domain.ErrStorage, err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating failures: %w", domain.ErrStorage, err)
	}
	return failures, nil
}

func scanRun(rows *sql.Rows) (domain.RunRecord, error) {
	var run domain.RunRecord
	var startedAt time.Time
	var finishedAt sql.NullTime
	if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Succeeded, &run.MediaDownloaded,
		&run.MediaFailures, &run.StartCursor, &run.EndCursor, &run.Aborted, &run.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, domain.ErrNotFound
		}
		return run, fmt.Errorf("%w: scanning run: %w", domain.ErrStorage, err)
	}
	run.StartedAt = startedAt
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return run, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
