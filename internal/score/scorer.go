package score

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/claimtriage/checkprioritizer/internal/judge"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// ErrBudgetExceeded indicates the evidence context cannot be reduced to
// fit the configured prompt budget (the top-ranked passage alone exceeds
// it). The scorer degrades to a claim-only call instead of failing.
var ErrBudgetExceeded = errors.New("evidence exceeds prompt budget")

// EvidenceSource resolves evidence ids to their stored records
type EvidenceSource interface {
	Get(ctx context.Context, id string) (model.EvidenceRecord, error)
}

// Scorer turns one claim plus its retrieved evidence into a verdict.
// It builds a bounded prompt context from the top evidence, submits it to
// the judgment provider, and validates the structured response.
type Scorer struct {
	provider   judge.Provider
	evidence   EvidenceSource
	charBudget int
}

// NewScorer creates a scorer with the given evidence character budget
func NewScorer(provider judge.Provider, evidence EvidenceSource, charBudget int) *Scorer {
	return &Scorer{
		provider:   provider,
		evidence:   evidence,
		charBudget: charBudget,
	}
}

// Score produces a verdict for one claim. Evidence that does not fit the
// budget is dropped lowest-ranked first; if nothing fits, the call is
// degraded to claim-only context with an empty evidence set rather than
// failing outright.
func (s *Scorer) Score(ctx context.Context, claim model.Claim, retrieval model.RetrievalResult) (model.Verdict, error) {
	passages, err := s.loadPassages(ctx, retrieval)
	if err != nil {
		return model.Verdict{}, err
	}

	fitted, err := fitBudget(passages, s.charBudget)
	if errors.Is(err, ErrBudgetExceeded) {
		logrus.WithFields(logrus.Fields{
			"claim_id": claim.ID,
			"budget":   s.charBudget,
		}).Warn("evidence exceeds prompt budget, degrading to claim-only judgment")
		fitted = nil
	} else if err != nil {
		return model.Verdict{}, err
	}

	judgment, err := s.provider.Judge(ctx, judge.Request{
		ClaimText: claim.Text,
		Evidence:  fitted,
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("judge claim %s: %w", claim.ID, err)
	}

	used := make([]string, len(fitted))
	for i, p := range fitted {
		used[i] = p.ID
	}

	return model.Verdict{
		ClaimID:         claim.ID,
		CheckWorthiness: judgment.Score,
		Rationale:       judgment.Rationale,
		EvidenceUsed:    used,
	}, nil
}

// loadPassages resolves ranked evidence ids to their text, preserving rank
// order. Records deleted since retrieval are skipped, not fatal.
func (s *Scorer) loadPassages(ctx context.Context, retrieval model.RetrievalResult) ([]judge.Passage, error) {
	passages := make([]judge.Passage, 0, len(retrieval.RankedEvidence))
	for _, es := range retrieval.RankedEvidence {
		rec, err := s.evidence.Get(ctx, es.EvidenceID)
		if err != nil {
			if isNotFound(err) {
				logrus.WithField("evidence_id", es.EvidenceID).Warn("evidence vanished between retrieval and scoring, skipping")
				continue
			}
			return nil, fmt.Errorf("load evidence %s: %w", es.EvidenceID, err)
		}
		passages = append(passages, judge.Passage{ID: rec.ID, Text: rec.Text})
	}
	return passages, nil
}

// fitBudget keeps the longest rank prefix whose total text length stays
// within budget. ErrBudgetExceeded means not even the top passage fits.
func fitBudget(passages []judge.Passage, budget int) ([]judge.Passage, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	total := 0
	fitted := passages[:0:0]
	for _, p := range passages {
		if total+len(p.Text) > budget {
			break
		}
		total += len(p.Text)
		fitted = append(fitted, p)
	}

	if len(fitted) == 0 {
		return nil, fmt.Errorf("top passage is %d chars, budget %d: %w", len(passages[0].Text), budget, ErrBudgetExceeded)
	}

	return fitted, nil
}
