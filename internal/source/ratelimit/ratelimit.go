// Package ratelimit gates how often an upstream source is hit.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// MinInterval wraps a source and spaces the start of consecutive loads at
// least Interval apart. Concurrent callers queue one interval after another;
// a caller whose context ends while queued returns its error.
type MinInterval struct {
	S        source.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time // start slot handed to the most recent caller
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Load(ctx context.Context) (*series.Series, error) {
	if m.Interval > 0 {
		slot := m.reserve()
		if err := sleepUntil(ctx, slot); err != nil {
			m.release(slot)
			return nil, err
		}
	}
	return m.S.Load(ctx)
}

// reserve claims the next free start slot.
func (m *MinInterval) reserve() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := time.Now()
	if !m.last.IsZero() {
		if next := m.last.Add(m.Interval); next.After(slot) {
			slot = next
		}
	}
	m.last = slot
	return slot
}

// release gives back slot if no later caller has queued behind it.
func (m *MinInterval) release(slot time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last.Equal(slot) {
		m.last = slot.Add(-m.Interval)
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	wait := time.Until(t)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
