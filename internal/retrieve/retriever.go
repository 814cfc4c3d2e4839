package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

// ErrInvalidArgument indicates a caller error (e.g., non-positive k).
// Surfaced immediately, never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// Retriever produces the ranked evidence set for a claim: embed the claim
// text, query the corpus store for the k nearest evidence vectors by
// cosine similarity.
type Retriever struct {
	embedder embed.Embedder
	corpus   store.CorpusStore
}

// NewRetriever creates a retriever over the given embedder and corpus
func NewRetriever(embedder embed.Embedder, corpus store.CorpusStore) *Retriever {
	return &Retriever{embedder: embedder, corpus: corpus}
}

// Retrieve returns the ranked evidence for one claim. An empty corpus is
// not an error: the result simply carries no evidence and the scorer
// handles the no-evidence case explicitly. Given an unchanged corpus the
// ordering is reproducible call to call (similarity descending, ties by
// evidence id ascending).
func (r *Retriever) Retrieve(ctx context.Context, claim model.Claim, k int) (model.RetrievalResult, error) {
	if k <= 0 {
		return model.RetrievalResult{}, fmt.Errorf("k must be positive, got %d: %w", k, ErrInvalidArgument)
	}

	vector, err := r.embedder.Embed(ctx, claim.Text)
	if err != nil {
		return model.RetrievalResult{}, fmt.Errorf("embed claim %s: %w", claim.ID, err)
	}

	matches, err := r.corpus.Query(ctx, vector, k)
	if err != nil {
		return model.RetrievalResult{}, fmt.Errorf("query corpus for claim %s: %w", claim.ID, err)
	}

	ranked := make([]model.EvidenceScore, len(matches))
	for i, m := range matches {
		ranked[i] = model.EvidenceScore{EvidenceID: m.ID, Score: m.Score}
	}

	// Re-apply the canonical ordering rather than trusting the backend,
	// so every store implementation yields the same reproducible ranking.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].EvidenceID < ranked[j].EvidenceID
	})

	return model.RetrievalResult{
		ClaimID:        claim.ID,
		RankedEvidence: ranked,
	}, nil
}
