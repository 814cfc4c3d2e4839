package model

// EvidenceRecord represents an indexed corpus passage and its embedding.
// The embedding is always the embedder's output for Text; if Text changes
// the record must be re-embedded before upsert or it is considered stale.
type EvidenceRecord struct {
	ID        string            `json:"id"`                 // Corpus-wide identity (e.g., tweet id)
	Text      string            `json:"text"`               // Sanitized passage text
	Embedding []float32         `json:"embedding"`          // Fixed-dimension vector
	Metadata  map[string]string `json:"metadata,omitempty"` // Source filename, class label, etc.
}

// EvidenceScore pairs an evidence id with its similarity to a query claim
type EvidenceScore struct {
	EvidenceID string  `json:"evidence_id"`
	Score      float64 `json:"score"` // Cosine similarity
}

// RetrievalResult is the ranked evidence set for one claim.
// RankedEvidence is ordered by score descending, ties broken by evidence
// id ascending so retrieval is reproducible given an unchanged corpus.
// Ephemeral - produced per query, never persisted.
type RetrievalResult struct {
	ClaimID        string          `json:"claim_id"`
	RankedEvidence []EvidenceScore `json:"ranked_evidence"`
}

// EvidenceIDs returns the ranked evidence ids in order
func (r RetrievalResult) EvidenceIDs() []string {
	ids := make([]string, len(r.RankedEvidence))
	for i, e := range r.RankedEvidence {
		ids[i] = e.EvidenceID
	}
	return ids
}
