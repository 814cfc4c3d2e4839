package model

import "time"

// Verdict is the check-worthiness judgment for one claim.
// Immutable once produced.
type Verdict struct {
	ClaimID         string   `json:"claim_id"`
	CheckWorthiness float64  `json:"check_worthiness"`        // In [0,1], validated at the judge boundary
	Rationale       string   `json:"rationale"`               // Free-text justification from the judge
	EvidenceUsed    []string `json:"evidence_used,omitempty"` // Evidence ids that fit the prompt budget
}

// FailedRationalePrefix marks sentinel verdicts for claims whose scoring
// failed after exhausting retries. The report always contains every input
// claim; failures are visible through this prefix, never dropped.
const FailedRationalePrefix = "scoring failed: "

// FailedVerdict builds the sentinel verdict recorded for an unrecoverable
// per-claim failure.
func FailedVerdict(claimID string, reason error) Verdict {
	return Verdict{
		ClaimID:         claimID,
		CheckWorthiness: 0,
		Rationale:       FailedRationalePrefix + reason.Error(),
	}
}

// Failed reports whether this verdict is a failure sentinel
func (v Verdict) Failed() bool {
	return len(v.Rationale) >= len(FailedRationalePrefix) &&
		v.Rationale[:len(FailedRationalePrefix)] == FailedRationalePrefix
}

// RankedClaim pairs a claim with its verdict in the final report
type RankedClaim struct {
	Claim   Claim   `json:"claim"`
	Verdict Verdict `json:"verdict"`
}

// PriorityReport is the pipeline's final output: every input claim ranked
// by check-worthiness descending. Equal scores keep their original input
// order, so the ranking is independent of task completion order.
type PriorityReport struct {
	Entries     []RankedClaim `json:"claims"`
	GeneratedAt time.Time     `json:"generated_at"`
}
