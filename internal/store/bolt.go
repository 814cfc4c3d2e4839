package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/claimtriage/checkprioritizer/internal/model"
)

var (
	bucketEvidence = []byte("evidence")
	bucketMeta     = []byte("meta")
	keyDimension   = []byte("dimension")
)

// BoltStore is a single-file persistent corpus store backed by bbolt.
// Queries scan the evidence bucket; for benchmark-sized corpora
// (tens of thousands of records) a full scan is fast enough.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
}

// NewBoltStore opens (or creates) the database at path. The embedding
// dimension is pinned on first open; reopening with a different dimension
// fails instead of silently mixing vector sizes.
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w: %v", ErrUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEvidence); err != nil {
			return fmt.Errorf("create evidence bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}

		if stored := meta.Get(keyDimension); stored != nil {
			if got := int(binary.BigEndian.Uint64(stored)); got != dimension {
				return fmt.Errorf("store built with dimension %d, configured %d: %w", got, dimension, ErrDimensionMismatch)
			}
			return nil
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(dimension))
		return meta.Put(keyDimension, buf)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db, dimension: dimension}, nil
}

// Upsert stores a record in one write transaction, so a replacement is
// never partially visible to concurrent readers.
func (s *BoltStore) Upsert(ctx context.Context, rec model.EvidenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rec.Embedding) != s.dimension {
		return fmt.Errorf("upsert %q: got %d, want %d: %w", rec.ID, len(rec.Embedding), s.dimension, ErrDimensionMismatch)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", rec.ID, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvidence).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("upsert %q: %w: %v", rec.ID, ErrUnavailable, err)
	}
	return nil
}

// Get returns the record for id
func (s *BoltStore) Get(ctx context.Context, id string) (model.EvidenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.EvidenceRecord{}, err
	}

	var rec model.EvidenceRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEvidence).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("get %q: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return model.EvidenceRecord{}, err
	}
	return rec, nil
}

// Delete removes the record for id
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketEvidence)
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("delete %q: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// Query scans all records inside one read transaction and returns the k
// nearest by cosine similarity.
func (s *BoltStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query: got %d, want %d: %w", len(vector), s.dimension, ErrDimensionMismatch)
	}

	var matches []Match
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvidence).ForEach(func(key, data []byte) error {
			var rec model.EvidenceRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("corrupt record %q: %w", key, err)
			}
			matches = append(matches, Match{ID: rec.ID, Score: cosine(rec.Embedding, vector)})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w: %v", ErrUnavailable, err)
	}

	return rankMatches(matches, k), nil
}

// Count returns the number of stored records
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketEvidence).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w: %v", ErrUnavailable, err)
	}
	return count, nil
}

// Close closes the underlying database
func (s *BoltStore) Close() error {
	return s.db.Close()
}
