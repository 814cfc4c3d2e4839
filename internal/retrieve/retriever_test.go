package retrieve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

// stubEmbedder returns canned vectors per text
type stubEmbedder struct {
	vectors   map[string][]float32
	dimension int
	err       error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, e.dimension), nil
}

func (e *stubEmbedder) Dimension() int { return e.dimension }

func seedCorpus(t *testing.T) store.CorpusStore {
	t.Helper()
	s, err := store.NewMemoryStore(2)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}

	ctx := context.Background()
	records := map[string][]float32{
		"E1": {1, 0},
		"E2": {0.9, 0.1},
		"E3": {0, 1},
	}
	for id, vec := range records {
		err := s.Upsert(ctx, model.EvidenceRecord{ID: id, Text: "evidence " + id, Embedding: vec})
		if err != nil {
			t.Fatalf("seed upsert %s failed: %v", id, err)
		}
	}
	return s
}

func TestRetriever_Retrieve(t *testing.T) {
	embedder := &stubEmbedder{
		vectors:   map[string][]float32{"the claim": {1, 0}},
		dimension: 2,
	}
	r := NewRetriever(embedder, seedCorpus(t))

	result, err := r.Retrieve(context.Background(), model.NewClaim("c1", "the claim"), 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if result.ClaimID != "c1" {
		t.Errorf("expected claim id c1, got %s", result.ClaimID)
	}
	if len(result.RankedEvidence) != 2 {
		t.Fatalf("expected 2 evidence entries, got %d", len(result.RankedEvidence))
	}
	if result.RankedEvidence[0].EvidenceID != "E1" || result.RankedEvidence[1].EvidenceID != "E2" {
		t.Errorf("unexpected ranking: %+v", result.RankedEvidence)
	}
	if result.RankedEvidence[0].Score < result.RankedEvidence[1].Score {
		t.Error("evidence not sorted by similarity descending")
	}
}

func TestRetriever_Retrieve_Deterministic(t *testing.T) {
	embedder := &stubEmbedder{
		vectors:   map[string][]float32{"the claim": {1, 1}},
		dimension: 2,
	}

	s, _ := store.NewMemoryStore(2)
	ctx := context.Background()
	// Identical embeddings force ties across the whole corpus
	for _, id := range []string{"E5", "E2", "E9", "E1", "E7"} {
		_ = s.Upsert(ctx, model.EvidenceRecord{ID: id, Text: id, Embedding: []float32{1, 1}})
	}

	r := NewRetriever(embedder, s)
	claim := model.NewClaim("c1", "the claim")

	first, err := r.Retrieve(ctx, claim, 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	for run := 0; run < 10; run++ {
		again, err := r.Retrieve(ctx, claim, 5)
		if err != nil {
			t.Fatalf("repeat Retrieve failed: %v", err)
		}
		if !reflect.DeepEqual(first.RankedEvidence, again.RankedEvidence) {
			t.Fatalf("run %d: ordering changed: %+v vs %+v", run, first.RankedEvidence, again.RankedEvidence)
		}
	}

	for i, want := range []string{"E1", "E2", "E5", "E7", "E9"} {
		if first.RankedEvidence[i].EvidenceID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, first.RankedEvidence[i].EvidenceID)
		}
	}
}

// unsortedStore returns matches in insertion order, ignoring the ranking
// contract, to verify the retriever enforces ordering itself.
type unsortedStore struct {
	matches []store.Match
}

func (s *unsortedStore) Upsert(ctx context.Context, rec model.EvidenceRecord) error { return nil }
func (s *unsortedStore) Get(ctx context.Context, id string) (model.EvidenceRecord, error) {
	return model.EvidenceRecord{}, store.ErrNotFound
}
func (s *unsortedStore) Delete(ctx context.Context, id string) error { return nil }
func (s *unsortedStore) Query(ctx context.Context, vector []float32, k int) ([]store.Match, error) {
	return s.matches, nil
}
func (s *unsortedStore) Count(ctx context.Context) (int, error) { return len(s.matches), nil }
func (s *unsortedStore) Close() error                           { return nil }

func TestRetriever_Retrieve_ReordersBackendResults(t *testing.T) {
	s := &unsortedStore{matches: []store.Match{
		{ID: "E3", Score: 0.2},
		{ID: "E2", Score: 0.8},
		{ID: "E4", Score: 0.8},
		{ID: "E1", Score: 0.5},
	}}
	r := NewRetriever(&stubEmbedder{dimension: 2}, s)

	result, err := r.Retrieve(context.Background(), model.NewClaim("c1", "text"), 4)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	want := []model.EvidenceScore{
		{EvidenceID: "E2", Score: 0.8},
		{EvidenceID: "E4", Score: 0.8},
		{EvidenceID: "E1", Score: 0.5},
		{EvidenceID: "E3", Score: 0.2},
	}
	if !reflect.DeepEqual(result.RankedEvidence, want) {
		t.Errorf("backend ordering not corrected:\n got %+v\nwant %+v", result.RankedEvidence, want)
	}
}

func TestRetriever_Retrieve_InvalidK(t *testing.T) {
	r := NewRetriever(&stubEmbedder{dimension: 2}, seedCorpus(t))

	for _, k := range []int{0, -1} {
		_, err := r.Retrieve(context.Background(), model.NewClaim("c1", "text"), k)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("k=%d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
}

func TestRetriever_Retrieve_EmptyCorpus(t *testing.T) {
	s, _ := store.NewMemoryStore(2)
	r := NewRetriever(&stubEmbedder{dimension: 2}, s)

	result, err := r.Retrieve(context.Background(), model.NewClaim("c1", "text"), 5)
	if err != nil {
		t.Fatalf("Retrieve on empty corpus should not fail: %v", err)
	}
	if len(result.RankedEvidence) != 0 {
		t.Errorf("expected empty ranked evidence, got %d entries", len(result.RankedEvidence))
	}
}

func TestRetriever_Retrieve_EmbedderFailure(t *testing.T) {
	embedder := &stubEmbedder{dimension: 2, err: embed.ErrUnavailable}
	r := NewRetriever(embedder, seedCorpus(t))

	_, err := r.Retrieve(context.Background(), model.NewClaim("c1", "text"), 5)
	if !errors.Is(err, embed.ErrUnavailable) {
		t.Errorf("expected embed.ErrUnavailable to propagate, got %v", err)
	}
}
