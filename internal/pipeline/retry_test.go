package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/claimtriage/checkprioritizer/internal/embed"
	"github.com/claimtriage/checkprioritizer/internal/judge"
	"github.com/claimtriage/checkprioritizer/internal/store"
)

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"embed unavailable", embed.ErrUnavailable, true},
		{"judge unavailable", judge.ErrUnavailable, true},
		{"store unavailable", store.ErrUnavailable, true},
		{"wrapped unavailable", fmt.Errorf("retrieve: %w", store.ErrUnavailable), true},
		{"malformed verdict", judge.ErrMalformedVerdict, false},
		{"dimension mismatch", store.ErrDimensionMismatch, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transient(tt.err); got != tt.want {
				t.Errorf("transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Second, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return judge.ErrUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Second, time.Millisecond, func(ctx context.Context) error {
		calls++
		return embed.ErrUnavailable
	})
	if !errors.Is(err, embed.ErrUnavailable) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestWithRetry_DoesNotRetryContractViolations(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Second, time.Millisecond, func(ctx context.Context) error {
		calls++
		return judge.ErrMalformedVerdict
	})
	if !errors.Is(err, judge.ErrMalformedVerdict) {
		t.Fatalf("expected malformed verdict error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("contract violation must not be retried, got %d calls", calls)
	}
}

func TestWithRetry_AppliesPerAttemptTimeout(t *testing.T) {
	var deadline time.Time
	var hadDeadline bool
	err := withRetry(context.Background(), 1, 50*time.Millisecond, time.Millisecond, func(ctx context.Context) error {
		deadline, hadDeadline = ctx.Deadline()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hadDeadline {
		t.Fatal("attempt context should carry a deadline")
	}
	if until := time.Until(deadline); until > 50*time.Millisecond {
		t.Errorf("deadline too far out: %v", until)
	}
}

func TestWithRetry_StopsOnCancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := withRetry(ctx, 5, time.Second, time.Millisecond, func(attemptCtx context.Context) error {
		calls++
		cancel()
		return store.ErrUnavailable
	})
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected the attempt error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("cancelled parent must stop retries, got %d calls", calls)
	}
}

func TestWithRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = withRetry(context.Background(), 0, time.Second, time.Millisecond, func(ctx context.Context) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}
