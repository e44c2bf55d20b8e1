package middleware

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	cb := NewCircuitBreaker("mail", 2, time.Minute)

	boom := errors.New("smtp down")
	for i := 0; i < 2; i++ {
		if err := cb.Call(ctx, func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped call error, got %v", err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected breaker open, got %v", cb.GetState())
	}

	// Open breaker fails fast without invoking fn.
	called := false
	err := cb.Call(ctx, func() error { called = true; return nil })
	if err == nil || called {
		t.Fatalf("expected fail-fast, err=%v called=%v", err, called)
	}
}

func TestCircuitBreakerRecoversViaHalfOpen(t *testing.T) {
	ctx := context.Background()
	cb := NewCircuitBreaker("mail", 1, time.Millisecond)

	if err := cb.Call(ctx, func() error { return errors.New("fail") }); err == nil {
		t.Fatalf("expected failure")
	}
	time.Sleep(5 * time.Millisecond)

	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected breaker closed after successful probe, got %v", cb.GetState())
	}
}
