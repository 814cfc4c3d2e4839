package ingest

import (
	"context"
	"fmt"

	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
	"github.com/claimtriage/checkprioritizer/internal/util"
)

// Indexer builds evidence records: sanitize, embed, upsert. This is the
// write path into the corpus store; the query path never touches it.
type Indexer struct {
	embedder embed.Embedder
	corpus   store.CorpusStore
}

// NewIndexer creates an indexer over the given embedder and corpus
func NewIndexer(embedder embed.Embedder, corpus store.CorpusStore) *Indexer {
	return &Indexer{embedder: embedder, corpus: corpus}
}

// UpsertEvidence sanitizes text, embeds it, and upserts the record.
// Idempotent on id: calling twice with identical arguments leaves the
// store observably unchanged after the second call.
func (ix *Indexer) UpsertEvidence(ctx context.Context, id, text string, metadata map[string]string) error {
	if id == "" {
		return fmt.Errorf("evidence id is required")
	}

	clean := util.SanitizeEvidenceText(text)
	if clean == "" {
		return fmt.Errorf("evidence %s: no text left after sanitization", id)
	}

	vector, err := ix.embedder.Embed(ctx, clean)
	if err != nil {
		return fmt.Errorf("embed evidence %s: %w", id, err)
	}

	return ix.corpus.Upsert(ctx, model.EvidenceRecord{
		ID:        id,
		Text:      clean,
		Embedding: vector,
		Metadata:  metadata,
	})
}
