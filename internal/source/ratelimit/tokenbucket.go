package ratelimit

import (
	"context"
	"sync"
	"time"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// TokenBucket refills at rate tokens per second up to capacity. Waiters
// reserve a token up front, so the balance may go negative and concurrent
// callers are released one refill period apart in arrival order.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1e-7
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// PerMinute builds a bucket from a requests-per-minute budget.
func PerMinute(rpm, burst int) *TokenBucket {
	return NewTokenBucket(float64(rpm)/60, burst)
}

// Wait blocks until the caller's token is due or ctx ends. A cancelled
// reservation is handed back to the bucket.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	due := tb.reserve()
	if err := sleepUntil(ctx, due); err != nil {
		tb.mu.Lock()
		tb.tokens = min(tb.tokens+1, tb.capacity)
		tb.mu.Unlock()
		return err
	}
	return nil
}

// reserve takes one token and returns when it becomes available.
func (tb *TokenBucket) reserve() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := time.Now()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.tokens+elapsed*tb.rate, tb.capacity)
		tb.last = now
	}
	tb.tokens--
	if tb.tokens >= 0 {
		return now
	}
	return now.Add(time.Duration(-tb.tokens / tb.rate * float64(time.Second)))
}

// TokenBucketSource wraps a Source and gates loads using a token bucket.
type TokenBucketSource struct {
	S  source.Source
	TB *TokenBucket
}

func (t *TokenBucketSource) Name() string { return t.S.Name() }

func (t *TokenBucketSource) Load(ctx context.Context) (*series.Series, error) {
	if t.TB != nil {
		if err := t.TB.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return t.S.Load(ctx)
}
