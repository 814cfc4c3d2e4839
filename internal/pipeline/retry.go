package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/judge"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

// transient reports whether an error is a retryable infrastructure
// failure. Contract violations (malformed verdicts, dimension mismatches,
// invalid arguments) are never retried: they indicate a defect, not a
// flaky service.
func transient(err error) bool {
	return errors.Is(err, embed.ErrUnavailable) ||
		errors.Is(err, judge.ErrUnavailable) ||
		errors.Is(err, store.ErrUnavailable)
}

// withRetry runs fn up to attempts times, wrapping each attempt in its own
// timeout and backing off exponentially between transient failures.
// A per-attempt timeout surfaces through the service clients as the
// corresponding unavailable error, so it participates in the same policy.
func withRetry(ctx context.Context, attempts int, callTimeout, baseBackoff time.Duration, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseBackoff << (attempt - 1)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}

	return err
}
