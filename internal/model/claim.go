package model

// Claim represents a single verifiable statement submitted for triage
type Claim struct {
	ID           string `json:"id"`                      // Stable identity, assigned at creation
	Text         string `json:"text"`                    // The claim text itself
	SourceOffset int    `json:"source_offset,omitempty"` // Character offset in the source text, -1 when unknown
}

// NewClaim creates a claim with no known source offset
func NewClaim(id, text string) Claim {
	return Claim{ID: id, Text: text, SourceOffset: -1}
}
