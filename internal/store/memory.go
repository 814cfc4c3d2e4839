package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/claimtriage/checkprioritizer/internal/model"
)

// MemoryStore is an in-process corpus store using brute-force cosine
// similarity. Suitable for tests and small benchmark corpora.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]model.EvidenceRecord
}

// NewMemoryStore creates a memory store for vectors of the given dimension
func NewMemoryStore(dimension int) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	return &MemoryStore{
		dimension: dimension,
		records:   make(map[string]model.EvidenceRecord),
	}, nil
}

// Upsert stores a record, replacing any existing record with the same id
func (s *MemoryStore) Upsert(ctx context.Context, rec model.EvidenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rec.Embedding) != s.dimension {
		return fmt.Errorf("upsert %q: got %d, want %d: %w", rec.ID, len(rec.Embedding), s.dimension, ErrDimensionMismatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Get returns the record for id
func (s *MemoryStore) Get(ctx context.Context, id string) (model.EvidenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.EvidenceRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return model.EvidenceRecord{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Delete removes the record for id
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// Query scans all records and returns the k nearest by cosine similarity
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query: got %d, want %d: %w", len(vector), s.dimension, ErrDimensionMismatch)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for id, rec := range s.records {
		matches = append(matches, Match{ID: id, Score: cosine(rec.Embedding, vector)})
	}

	return rankMatches(matches, k), nil
}

// Count returns the number of stored records
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
