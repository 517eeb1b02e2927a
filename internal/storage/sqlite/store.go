package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/prismql/prism/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// Ensure Store implements the interface.
var _ storage.Store = (*Store)(nil)

// New creates a new SQLite store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS persisted_queries (
			hash TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			operation_name TEXT,
			query_hash TEXT,
			status TEXT NOT NULL,
			error TEXT,
			trace TEXT,
			duration_ns INTEGER,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) GetQuery(ctx context.Context, hash string) (*storage.PersistedQuery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, query, created_at FROM persisted_queries WHERE hash = ?`, hash)

	var pq storage.PersistedQuery
	if err := row.Scan(&pq.Hash, &pq.Query, &pq.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get query %s: %w", hash, err)
	}
	return &pq, nil
}

func (s *Store) PutQuery(ctx context.Context, hash, query string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persisted_queries (hash, query, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		hash, query, time.Now())
	if err != nil {
		return fmt.Errorf("put query %s: %w", hash, err)
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, rec *storage.RunRecord) error {
	trace, err := json.Marshal(rec.Trace)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation_name, query_hash, status, error, trace, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OperationName, rec.QueryHash, rec.Status, rec.Error,
		string(trace), rec.Duration.Nanoseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, operation_name, query_hash, status, error, trace, duration_ns, created_at
		 FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.RunRecord, error) {
	query := `SELECT id, operation_name, query_hash, status, error, trace, duration_ns, created_at FROM runs`
	var args []any

	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*storage.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*storage.RunRecord, error) {
	var (
		rec        storage.RunRecord
		trace      string
		durationNS int64
	)
	if err := row.Scan(&rec.ID, &rec.OperationName, &rec.QueryHash, &rec.Status,
		&rec.Error, &trace, &durationNS, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if trace != "" {
		if err := json.Unmarshal([]byte(trace), &rec.Trace); err != nil {
			return nil, fmt.Errorf("unmarshal trace: %w", err)
		}
	}
	rec.Duration = time.Duration(durationNS)
	return &rec, nil
}
