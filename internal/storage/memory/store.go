package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prismql/prism/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu      sync.RWMutex
	queries map[string]*storage.PersistedQuery
	runs    map[string]*storage.RunRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		queries: make(map[string]*storage.PersistedQuery),
		runs:    make(map[string]*storage.RunRecord),
	}
}

func (s *Store) GetQuery(ctx context.Context, hash string) (*storage.PersistedQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pq, ok := s.queries[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *pq
	return &cp, nil
}

func (s *Store) PutQuery(ctx context.Context, hash, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.queries[hash]; exists {
		return nil
	}
	s.queries[hash] = &storage.PersistedQuery{
		Hash:      hash,
		Query:     query,
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, rec *storage.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	cp.Trace = append([]string{}, rec.Trace...)
	s.runs[rec.ID] = &cp
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.RunRecord
	for _, rec := range s.runs {
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}

	// Newest first, like the SQLite store.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *Store) Close() error {
	return nil
}

// Ensure Store implements the interface.
var _ storage.Store = (*Store)(nil)
