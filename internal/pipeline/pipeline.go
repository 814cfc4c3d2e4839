package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/claimtriage/checkprioritizer/internal/cache"
	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/store"
	"github.com/claimtriage/checkprioritizer/internal/worker"
)

// defaultBackoff is the base delay between retry attempts, doubled per
// attempt.
const defaultBackoff = 500 * time.Millisecond

// Retriever produces the ranked evidence set for one claim
type Retriever interface {
	Retrieve(ctx context.Context, claim model.Claim, k int) (model.RetrievalResult, error)
}

// Scorer produces a verdict from one claim plus its retrieved evidence
type Scorer interface {
	Score(ctx context.Context, claim model.Claim, retrieval model.RetrievalResult) (model.Verdict, error)
}

// Prioritizer orchestrates retrieve then score for a batch of claims and
// ranks the outcome. Per-claim work runs concurrently up to the configured
// bound; within one claim retrieval and scoring are strictly sequential.
type Prioritizer struct {
	retriever Retriever
	scorer    Scorer
	limiter   *worker.Limiter
	verdicts  cache.Cache // nil disables verdict caching
	config    model.PipelineConfig
}

// NewPrioritizer creates a pipeline over the injected collaborators.
// limiter may be nil to disable rate limiting; verdicts may be nil to
// disable the verdict cache.
func NewPrioritizer(retriever Retriever, scorer Scorer, limiter *worker.Limiter, verdicts cache.Cache, config model.PipelineConfig) *Prioritizer {
	return &Prioritizer{
		retriever: retriever,
		scorer:    scorer,
		limiter:   limiter,
		verdicts:  verdicts,
		config:    config,
	}
}

// claimJob is one per-claim pipeline run: RETRIEVING then SCORING, ending
// in a verdict or a failure sentinel.
type claimJob struct {
	index int
	claim model.Claim
	p     *Prioritizer
}

// claimResult carries the original input index so the report can be
// reassembled independently of completion order.
type claimResult struct {
	index   int
	verdict model.Verdict
	err     error
}

// GetError returns the unrecoverable error for this claim, if any
func (r *claimResult) GetError() error {
	return r.err
}

// Execute runs retrieve then score for one claim. Any failure surviving
// the retry policy is converted into a sentinel verdict so the batch never
// drops a claim.
func (j *claimJob) Execute(ctx context.Context) worker.Result {
	verdict, err := j.p.processClaim(ctx, j.claim)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"claim_id": j.claim.ID,
			"error":    err,
		}).Warn("claim scoring failed")
		return &claimResult{index: j.index, verdict: model.FailedVerdict(j.claim.ID, err), err: err}
	}
	return &claimResult{index: j.index, verdict: verdict}
}

func (p *Prioritizer) processClaim(ctx context.Context, claim model.Claim) (model.Verdict, error) {
	var retrieval model.RetrievalResult
	err := withRetry(ctx, p.config.RetryAttempts, p.config.CallTimeout(), defaultBackoff, func(callCtx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(callCtx, worker.ServiceEmbedding); err != nil {
				return err
			}
		}
		var err error
		retrieval, err = p.retriever.Retrieve(callCtx, claim, p.config.TopKEvidence)
		return err
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("retrieve: %w", err)
	}

	if verdict, ok := p.cachedVerdict(claim, retrieval); ok {
		return verdict, nil
	}

	var verdict model.Verdict
	err = withRetry(ctx, p.config.RetryAttempts, p.config.CallTimeout(), defaultBackoff, func(callCtx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(callCtx, worker.ServiceJudgment); err != nil {
				return err
			}
		}
		var err error
		verdict, err = p.scorer.Score(callCtx, claim, retrieval)
		return err
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("score: %w", err)
	}

	p.storeVerdict(claim, retrieval, verdict)
	return verdict, nil
}

// cachedVerdict looks up a previously judged (claim text, evidence set)
// pair. The key is content-addressed, so corpus changes that alter the
// retrieved set naturally miss.
func (p *Prioritizer) cachedVerdict(claim model.Claim, retrieval model.RetrievalResult) (model.Verdict, bool) {
	if p.verdicts == nil {
		return model.Verdict{}, false
	}

	data, found := p.verdicts.Get(cache.VerdictKey(claim.Text, retrieval.EvidenceIDs()))
	if !found {
		return model.Verdict{}, false
	}

	var verdict model.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return model.Verdict{}, false
	}

	// The cached judgment may have been produced for a claim with the same
	// text but a different id.
	verdict.ClaimID = claim.ID
	return verdict, true
}

func (p *Prioritizer) storeVerdict(claim model.Claim, retrieval model.RetrievalResult, verdict model.Verdict) {
	if p.verdicts == nil {
		return
	}
	if data, err := json.Marshal(verdict); err == nil {
		_ = p.verdicts.Set(cache.VerdictKey(claim.Text, retrieval.EvidenceIDs()), data, 0)
	}
}

// Prioritize scores every claim and returns them ranked by
// check-worthiness descending, ties keeping original input order. The
// report always contains exactly len(claims) entries: per-claim failures
// become sentinel verdicts, never dropped rows. If the corpus store was
// unreachable for every claim the batch fails as a whole instead of
// producing N identical failure rows.
func (p *Prioritizer) Prioritize(ctx context.Context, claims []model.Claim) (*model.PriorityReport, error) {
	entries := make([]model.RankedClaim, len(claims))
	for i, claim := range claims {
		entries[i] = model.RankedClaim{
			Claim:   claim,
			Verdict: model.FailedVerdict(claim.ID, errors.New("not scheduled")),
		}
	}

	pool := worker.NewPool(p.config.MaxConcurrency)
	pool.Start(ctx)

	for i, claim := range claims {
		if !pool.Submit(ctx, &claimJob{index: i, claim: claim, p: p}) {
			break
		}
	}

	results := pool.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storeFailures := 0
	for _, res := range results {
		r := res.(*claimResult)
		entries[r.index] = model.RankedClaim{Claim: claims[r.index], Verdict: r.verdict}
		if errors.Is(r.err, store.ErrUnavailable) {
			storeFailures++
		}
	}

	if len(claims) > 0 && storeFailures == len(claims) {
		return nil, fmt.Errorf("retrieval failed for all %d claims: %w", len(claims), store.ErrUnavailable)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Verdict.CheckWorthiness > entries[j].Verdict.CheckWorthiness
	})

	return &model.PriorityReport{
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
