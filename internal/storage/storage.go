// Package storage defines the persistence interfaces for the service:
// persisted query documents and run records.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// PersistedQuery is a stored query document, keyed by the sha256 of its
// text. Clients using the persisted-query extension send only the hash.
type PersistedQuery struct {
	Hash      string
	Query     string
	CreatedAt time.Time
}

// RunRecord captures one pipeline run for later inspection. Trace is kept
// as recorded by the engine, most recent phase first.
type RunRecord struct {
	ID            string
	OperationName string
	QueryHash     string
	Status        string // "ok" or "error"
	Error         string
	Trace         []string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Run statuses.
const (
	RunStatusOK    = "ok"
	RunStatusError = "error"
)

// ListOptions filters run listings.
type ListOptions struct {
	Status string
	Limit  int
}

// PersistedQueryStore stores query documents by hash.
type PersistedQueryStore interface {
	GetQuery(ctx context.Context, hash string) (*PersistedQuery, error)
	PutQuery(ctx context.Context, hash, query string) error
}

// RunStore records pipeline runs.
type RunStore interface {
	RecordRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*RunRecord, error)
}

// Store is the full persistence surface.
type Store interface {
	PersistedQueryStore
	RunStore
	Close() error
}
