package store

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/claimtriage/checkprioritizer/internal/model"
)

var (
	// ErrUnavailable indicates the underlying index cannot be reached.
	// Transient: callers retry per the pipeline policy.
	ErrUnavailable = errors.New("corpus store unavailable")

	// ErrDimensionMismatch indicates a stored or queried vector's length
	// disagrees with the store's configured embedding dimension.
	// A contract defect, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates no evidence record exists for the given id
	ErrNotFound = errors.New("evidence record not found")
)

// Match is one nearest-neighbor query hit
type Match struct {
	ID    string
	Score float64
}

// CorpusStore persists evidence records and answers nearest-neighbor
// queries over their embeddings. Implementations are safe for concurrent
// readers; concurrent upserts to the same id are serialized with
// last-committed-wins semantics.
type CorpusStore interface {
	// Upsert stores a record, replacing any record with the same id
	// atomically. Idempotent on identical input.
	Upsert(ctx context.Context, rec model.EvidenceRecord) error

	// Get returns the record for id, or ErrNotFound
	Get(ctx context.Context, id string) (model.EvidenceRecord, error)

	// Delete removes the record for id, or returns ErrNotFound
	Delete(ctx context.Context, id string) error

	// Query returns at most k matches sorted by cosine similarity
	// descending, ties broken by id ascending.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	Close() error
}

// cosine computes cosine similarity between two same-length vectors.
// Returns 0 for zero-magnitude input rather than NaN.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankMatches sorts matches by score descending with the deterministic
// id tie-break and truncates to k.
func rankMatches(matches []Match, k int) []Match {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
