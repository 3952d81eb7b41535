package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	mdwerror "github.com/msto63/calcparse/foundation/core/error"
)

// RunEntry is one recorded compile
type RunEntry struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Status      calc.Status   `json:"status"`
	Source      string        `json:"source"`
	Tree        string        `json:"tree,omitempty"` // compact form, empty for aborted runs
	Diagnostics []string      `json:"diagnostics,omitempty"`
	Tokens      int           `json:"tokens"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	Status    calc.Status
	StartTime time.Time
	Limit     int
	Offset    int
}

// SQLiteRunStore keeps the run history in a SQLite database. It implements
// calc.Recorder.
type SQLiteRunStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// SQLiteRunConfig holds configuration for the SQLite store
type SQLiteRunConfig struct {
	Path string
}

// DefaultRunConfig returns default configuration
func DefaultRunConfig() SQLiteRunConfig {
	return SQLiteRunConfig{
		Path: "./data/history.db",
	}
}

// NewSQLiteRunStore opens (and if needed creates) the history database
func NewSQLiteRunStore(cfg SQLiteRunConfig) (*SQLiteRunStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dbError(err, "failed to create directory")
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}

	store := &SQLiteRunStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema")
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		status TEXT NOT NULL,
		source TEXT NOT NULL,
		tree TEXT,
		diagnostics TEXT,
		tokens INTEGER NOT NULL DEFAULT 0,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished run
func (s *SQLiteRunStore) Record(ctx context.Context, run *calc.Run) error {
	return s.Save(ctx, EntryFromRun(run))
}

// Save stores a run entry
func (s *SQLiteRunStore) Save(ctx context.Context, entry *RunEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = fmt.Sprintf("r%d", time.Now().UnixNano())
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	var diagnosticsJSON []byte
	if len(entry.Diagnostics) > 0 {
		diagnosticsJSON, _ = json.Marshal(entry.Diagnostics)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, timestamp, status, source, tree, diagnostics, tokens, duration_ns, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp, string(entry.Status), entry.Source,
		nullString(entry.Tree), nullString(string(diagnosticsJSON)),
		entry.Tokens, int64(entry.Duration), nullString(entry.Error))
	if err != nil {
		return dbError(err, "failed to insert run")
	}

	return nil
}

// Get returns the run with the given ID
func (s *SQLiteRunStore) Get(ctx context.Context, id string) (*RunEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, status, source, tree, diagnostics, tokens, duration_ns, error
		FROM runs WHERE id = ?`, id)
	entry, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, mdwerror.Newf("run not found: %s", id).WithCode(mdwerror.CodeNotFound)
	}
	if err != nil {
		return nil, dbError(err, "failed to read run")
	}
	return entry, nil
}

// Query lists runs, newest first
func (s *SQLiteRunStore) Query(ctx context.Context, filter RunFilter) ([]*RunEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, status, source, tree, diagnostics, tokens, duration_ns, error FROM runs WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.StartTime.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartTime)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "failed to query runs")
	}
	defer rows.Close()

	var entries []*RunEntry
	for rows.Next() {
		entry, err := scanRun(rows)
		if err != nil {
			return nil, dbError(err, "failed to scan run")
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats returns run counts per status
func (s *SQLiteRunStore) Stats(ctx context.Context) (map[calc.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, dbError(err, "failed to count runs")
	}
	defer rows.Close()

	stats := make(map[calc.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, dbError(err, "failed to scan stats")
		}
		stats[calc.Status(status)] = count
	}
	return stats, rows.Err()
}

// Prune removes runs older than the given age
func (s *SQLiteRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, dbError(err, "failed to prune runs")
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

// EntryFromRun flattens an engine run into a storable entry
func EntryFromRun(run *calc.Run) *RunEntry {
	entry := &RunEntry{
		ID:        run.ID.String(),
		Timestamp: run.Started,
		Status:    run.Status,
		Source:    run.Source,
		Duration:  run.Duration,
	}
	if run.Err != nil {
		entry.Error = run.Err.Error()
	}
	if res := run.Result; res != nil {
		entry.Tokens = res.Tokens
		if !res.Failed {
			entry.Tree = mdwast.Format(res.Root, mdwast.StyleCompact)
		}
		for _, d := range res.Diagnostics {
			entry.Diagnostics = append(entry.Diagnostics, d.String())
		}
	}
	return entry
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*RunEntry, error) {
	var entry RunEntry
	var status string
	var tree, diagnosticsJSON, errText sql.NullString
	var durationNs int64

	if err := row.Scan(&entry.ID, &entry.Timestamp, &status, &entry.Source,
		&tree, &diagnosticsJSON, &entry.Tokens, &durationNs, &errText); err != nil {
		return nil, err
	}

	entry.Status = calc.Status(status)
	entry.Duration = time.Duration(durationNs)
	if tree.Valid {
		entry.Tree = tree.String
	}
	if errText.Valid {
		entry.Error = errText.String
	}
	if diagnosticsJSON.Valid {
		json.Unmarshal([]byte(diagnosticsJSON.String), &entry.Diagnostics)
	}
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dbError(err error, message string) error {
	return mdwerror.Wrap(err, message).WithCode(mdwerror.CodeDatabaseError)
}
