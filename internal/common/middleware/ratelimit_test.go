package middleware

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	ctx := context.Background()
	tb := NewTokenBucket(3, 1000)

	for i := 0; i < 3; i++ {
		if !tb.Allow(ctx) {
			t.Fatalf("request %d denied with tokens available", i)
		}
	}
	if tb.Allow(ctx) {
		t.Fatalf("request allowed with an empty bucket")
	}

	// At 1000 tokens/s a few milliseconds are enough to refill.
	time.Sleep(10 * time.Millisecond)
	if !tb.Allow(ctx) {
		t.Fatalf("request denied after refill")
	}
}

func TestSlidingWindowLimitsWithinWindow(t *testing.T) {
	ctx := context.Background()
	sw := NewSlidingWindow(50*time.Millisecond, 2)

	if !sw.Allow(ctx) || !sw.Allow(ctx) {
		t.Fatalf("requests denied under the limit")
	}
	if sw.Allow(ctx) {
		t.Fatalf("third request allowed inside the window")
	}

	time.Sleep(60 * time.Millisecond)
	if !sw.Allow(ctx) {
		t.Fatalf("request denied after the window slid")
	}
}
