// Package cache keeps the last loaded series for a TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// Source caches the series returned by S for TTL. When a refresh fails and a
// previous series exists, the stale series is returned instead of the error.
type Source struct {
	S   source.Source
	TTL time.Duration
	// OnStale is called when a refresh error is swallowed.
	OnStale func(err error)

	now func() time.Time

	mu        sync.Mutex
	expiresAt time.Time
	value     *series.Series
}

func (c *Source) Name() string { return c.S.Name() }

func (c *Source) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Load returns the cached series while it is fresh. Concurrent callers that
// miss the cache wait for a single upstream load.
func (c *Source) Load(ctx context.Context) (*series.Series, error) {
	if c.TTL <= 0 {
		return c.S.Load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.value != nil && now.Before(c.expiresAt) {
		return c.value, nil
	}

	fresh, err := c.S.Load(ctx)
	if err != nil {
		// If we have a previous series, return it rather than failing entirely
		if c.value != nil {
			if c.OnStale != nil {
				c.OnStale(err)
			}
			return c.value, nil
		}
		return nil, err
	}
	c.value = fresh
	c.expiresAt = now.Add(c.TTL)
	return fresh, nil
}

// Invalidate drops the cached series.
func (c *Source) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
