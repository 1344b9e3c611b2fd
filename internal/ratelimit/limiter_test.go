package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(Config{
		RequestsPerSecond: 100.0,
		BurstSize:         2,
		MinHostDelay:      time.Millisecond,
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst requests took too long: %v", elapsed)
	}
}

func TestLimiter_WaitForHost_EnforcesDelay(t *testing.T) {
	limiter := NewLimiter(Config{
		RequestsPerSecond: 1000.0,
		BurstSize:         10,
		MinHostDelay:      30 * time.Millisecond,
	})

	ctx := context.Background()
	if err := limiter.WaitForHost(ctx, "resolver.example"); err != nil {
		t.Fatalf("WaitForHost() error = %v", err)
	}

	start := time.Now()
	if err := limiter.WaitForHost(ctx, "resolver.example"); err != nil {
		t.Fatalf("WaitForHost() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("second request to same host not delayed: %v", elapsed)
	}
}

func TestLimiter_WaitForHost_Cancellation(t *testing.T) {
	limiter := NewLimiter(Config{
		RequestsPerSecond: 1000.0,
		BurstSize:         10,
		MinHostDelay:      time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := limiter.WaitForHost(ctx, "h"); err != nil {
		t.Fatalf("WaitForHost() error = %v", err)
	}
	cancel()
	if err := limiter.WaitForHost(ctx, "h"); err == nil {
		t.Fatal("expected context error after cancellation")
	}
}
