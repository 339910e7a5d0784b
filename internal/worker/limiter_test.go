package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 2)

	// Burst of 2 allowed immediately
	if !limiter.Allow("checker-a") {
		t.Error("expected first dispatch to be allowed")
	}
	if !limiter.Allow("checker-a") {
		t.Error("expected second dispatch to be allowed")
	}
	if limiter.Allow("checker-a") {
		t.Error("expected third dispatch to be limited")
	}

	// Separate agent has its own bucket
	if !limiter.Allow("checker-b") {
		t.Error("expected separate agent to be unaffected")
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)

	ctx := context.Background()
	if err := limiter.Wait(ctx, "checker-a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Second wait should clear within the 10ms refill window
	start := time.Now()
	if err := limiter.Wait(ctx, "checker-a"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took too long: %v", elapsed)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	_ = limiter.Wait(ctx, "checker-a") // Drain the burst
	cancel()

	if err := limiter.Wait(ctx, "checker-a"); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestLimiter_SetAgentRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetAgentRate("fast-checker", 1000, 100)

	allowed := 0
	for i := 0; i < 50; i++ {
		if limiter.Allow("fast-checker") {
			allowed++
		}
	}
	if allowed != 50 {
		t.Errorf("expected 50 dispatches allowed under custom rate, got %d", allowed)
	}
}
