package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed RunStore, suitable for a single orchestrator
// process that wants run history to survive a restart without standing up a
// separate database server.
//
// Type parameter S is the state type to persist (must be JSON-serializable).
type SQLiteStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path and
// ensures its schema exists. path may be ":memory:" for an ephemeral,
// process-local database.
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite supports one writer at a time
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore[S]{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	const runsTable = `
		CREATE TABLE IF NOT EXISTS orchestrator_runs (
			run_id TEXT NOT NULL PRIMARY KEY,
			state TEXT NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, runsTable); err != nil {
		return fmt.Errorf("failed to create orchestrator_runs table: %w", err)
	}
	return nil
}

// SaveRun records the final state of a run, replacing any prior record for
// the same runID.
func (s *SQLiteStore[S]) SaveRun(ctx context.Context, runID string, state S) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
		INSERT INTO orchestrator_runs (run_id, state, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			state = excluded.state,
			saved_at = excluded.saved_at
	`
	_, err = s.db.ExecContext(ctx, query, runID, string(stateJSON), time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// LoadRun retrieves a previously saved run. Returns ErrNotFound if runID is
// unknown.
func (s *SQLiteStore[S]) LoadRun(ctx context.Context, runID string) (RunRecord[S], error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		var zero RunRecord[S]
		return zero, fmt.Errorf("store is closed")
	}
	s.mu.RUnlock()

	query := `SELECT state, saved_at FROM orchestrator_runs WHERE run_id = ?`

	var stateJSON, savedAtStr string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&stateJSON, &savedAtStr)
	if err == sql.ErrNoRows {
		var zero RunRecord[S]
		return zero, ErrNotFound
	}
	if err != nil {
		var zero RunRecord[S]
		return zero, fmt.Errorf("failed to load run: %w", err)
	}

	var record RunRecord[S]
	record.RunID = runID
	if err := json.Unmarshal([]byte(stateJSON), &record.State); err != nil {
		var zero RunRecord[S]
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	record.SavedAt, err = time.Parse(time.RFC3339Nano, savedAtStr)
	if err != nil {
		var zero RunRecord[S]
		return zero, fmt.Errorf("failed to parse saved_at: %w", err)
	}
	return record, nil
}

// Close closes the underlying database connection. Safe to call more than
// once.
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path this store was opened with.
func (s *SQLiteStore[S]) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
