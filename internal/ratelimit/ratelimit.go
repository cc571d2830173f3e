// Package ratelimit spaces out calls that share a key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter enforces a minimum delay between calls with the same key. Callers
// with different keys never block each other.
type Limiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // earliest time the next call for a key may run
	minDelay time.Duration
	now      func() time.Time
}

// New creates a limiter that keeps calls for one key at least minDelay apart.
func New(minDelay time.Duration) *Limiter {
	return &Limiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// Wait blocks until key's slot comes up. Slots are reserved under the lock,
// so concurrent waiters on one key are served minDelay apart instead of all
// waking together. Returns an error if ctx is cancelled while waiting; the
// reserved slot is not reclaimed.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := l.now()
	slot := now
	if next, ok := l.next[key]; ok && next.After(now) {
		slot = next
	}
	l.next[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}
