package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/stackdiagram/pkg/errors"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Record)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, r *Record) error {
	if r.ID == uuid.Nil {
		return errors.New(errors.ErrCodeInvalidInput, "record has no id")
	}
	c := r.Summary()
	c.Artifacts = maps.Clone(r.Artifacts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = c
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "render %s not found", id)
	}
	c := r.Summary()
	c.Artifacts = maps.Clone(r.Artifacts)
	return c, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Summary())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(b.ID[:], a.ID[:])
	})
	return out[:min(len(out), normalizeLimit(limit))], nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
