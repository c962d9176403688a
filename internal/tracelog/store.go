package tracelog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/worktrunk/wt/internal/scheduler"
	_ "modernc.org/sqlite"
)

// ProbeTiming is one recorded probe execution within a run, used to build
// the WT_LIST_DEBUG=1 timing summary.
type ProbeTiming struct {
	ItemID     string
	Kind       scheduler.Kind
	Status     string
	DurationMs int64
	Err        string
}

// Store persists per-run probe timings for the WT_LIST_DEBUG=1 summary.
// Unlike the command log, this is opt-in: callers only open a Store when
// timing diagnostics are requested.
type Store interface {
	// StartRun records the start of a `wt list` collection run.
	StartRun(ctx context.Context, runID, repoRoot, targetBranch string, itemCount int) error
	// FinishRun records the end of a run and its total wall-clock duration.
	FinishRun(ctx context.Context, runID string, total time.Duration) error
	// RecordProbe appends one probe timing row to the run.
	RecordProbe(ctx context.Context, runID string, t ProbeTiming) error
	// Summary returns all probe timings for a run, in insertion order.
	Summary(ctx context.Context, runID string) ([]ProbeTiming, error)

	// Lifecycle
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode and foreign keys.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Allow 2 connections: one for primary queries, one for subqueries.
	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewMemoryStore creates an in-memory SQLite store for testing.
// Uses a shared cache so multiple connections see the same database.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	connStr := "file::memory:?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(2)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// StartRun records the start of a run.
func (s *SQLiteStore) StartRun(ctx context.Context, runID, repoRoot, targetBranch string, itemCount int) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, repo_root, target_branch, item_count, started_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, runID, repoRoot, targetBranch, itemCount)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return tx.Commit()
}

// FinishRun marks a run complete with its total duration.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, total time.Duration) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET finished_at = CURRENT_TIMESTAMP, total_ms = ?
		WHERE id = ?
	`, total.Milliseconds(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	return tx.Commit()
}

// RecordProbe appends one probe timing row to the run.
func (s *SQLiteStore) RecordProbe(ctx context.Context, runID string, t ProbeTiming) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO probe_timings (run_id, item_id, kind, status, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, t.ItemID, t.Kind.String(), t.Status, t.DurationMs, t.Err)
	if err != nil {
		return fmt.Errorf("failed to insert probe timing: %w", err)
	}

	return tx.Commit()
}

// Summary returns all probe timings for a run, ordered by insertion.
func (s *SQLiteStore) Summary(ctx context.Context, runID string) ([]ProbeTiming, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, kind, status, duration_ms, error
		FROM probe_timings
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe timings: %w", err)
	}
	defer rows.Close()

	timings := []ProbeTiming{}
	for rows.Next() {
		var t ProbeTiming
		var kind string
		if err := rows.Scan(&t.ItemID, &kind, &t.Status, &t.DurationMs, &t.Err); err != nil {
			return nil, fmt.Errorf("failed to scan probe timing: %w", err)
		}
		t.Kind = parseKind(kind)
		timings = append(timings, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating probe timings: %w", err)
	}

	return timings, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseKind(s string) scheduler.Kind {
	for k := scheduler.Skeleton; k <= scheduler.StatusSymbols; k++ {
		if k.String() == s {
			return k
		}
	}
	return scheduler.Skeleton
}
