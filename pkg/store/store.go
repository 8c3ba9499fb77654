// Package store persists render records for the HTTP service.
//
// A [Record] captures one successful render: the diagram title, the hash of
// its DOT source, the rendered artifacts and size statistics. Backends:
//
//   - [MemoryStore]: process-local, used by default and in tests
//   - [MongoStore]: MongoDB collection, for a shared deployment
package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
)

// DefaultListLimit caps List when no positive limit is given.
const DefaultListLimit = 50

// Record is a stored render.
type Record struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Hash      string            `json:"hash"`
	Formats   []string          `json:"formats"`
	Artifacts map[string][]byte `json:"-"`
	Stats     diagram.Stats     `json:"stats"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewRecord creates a record with a fresh ID and the current time.
func NewRecord(title, hash string, formats []string, artifacts map[string][]byte, stats diagram.Stats) *Record {
	return &Record{
		ID:        uuid.New(),
		Title:     title,
		Hash:      hash,
		Formats:   slices.Clone(formats),
		Artifacts: artifacts,
		Stats:     stats,
		CreatedAt: time.Now().UTC(),
	}
}

// Summary returns a copy of r without artifacts.
func (r *Record) Summary() *Record {
	s := *r
	s.Formats = slices.Clone(r.Formats)
	s.Artifacts = nil
	return &s
}

// Store persists render records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save stores r. Saving an existing ID replaces the record.
	Save(ctx context.Context, r *Record) error

	// Get returns the record with the given ID, including artifacts.
	// A missing record is an ErrCodeNotFound error.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns up to limit records, newest first, without artifacts.
	List(ctx context.Context, limit int) ([]*Record, error)

	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
