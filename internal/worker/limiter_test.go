package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	limiter := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ServiceEmbedding) {
			t.Fatalf("request %d should be within burst", i)
		}
	}
	if limiter.Allow(ServiceEmbedding) {
		t.Error("fourth request should exceed burst")
	}
}

func TestLimiter_ServicesAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow(ServiceEmbedding) {
		t.Fatal("first embedding request should pass")
	}
	if limiter.Allow(ServiceEmbedding) {
		t.Error("second embedding request should be throttled")
	}
	if !limiter.Allow(ServiceJudgment) {
		t.Error("judgment budget must be unaffected by embedding usage")
	}
}

func TestLimiter_SetServiceRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetServiceRate(ServiceJudgment, 100, 10)

	granted := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow(ServiceJudgment) {
			granted++
		}
	}
	if granted != 10 {
		t.Errorf("expected the custom burst of 10, got %d", granted)
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	// Drain the burst so the next Wait would block for ~100s
	if err := limiter.Wait(context.Background(), ServiceEmbedding); err != nil {
		t.Fatalf("first wait should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, ServiceEmbedding); err == nil {
		t.Error("wait should fail once the context deadline passes")
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	limiter := NewLimiter(1, 0)

	granted := 0
	for i := 0; i < 6; i++ {
		if limiter.Allow(ServiceEmbedding) {
			granted++
		}
	}
	if granted != 5 {
		t.Errorf("zero burst should fall back to 5, got %d grants", granted)
	}
}
