// Package ratelimit provides named token-bucket limiters that pace watcher
// event delivery and outbound mirror traffic.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter wraps a token bucket with a name used in error messages.
type Limiter struct {
	name   string
	bucket *rate.Limiter
}

// New creates a limiter admitting perSecond events with a burst of the same
// size, which suits steady streams like watcher emission.
func New(name string, perSecond int) *Limiter {
	return NewWithBurst(name, perSecond, perSecond)
}

// NewWithBurst creates a limiter with an explicit burst for callers whose
// traffic arrives in spikes, like mirror uploads.
func NewWithBurst(name string, perSecond, burst int) *Limiter {
	return &Limiter{
		name:   name,
		bucket: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Wait blocks until an event may proceed or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", l.name, err)
	}
	return nil
}

// Allow reports whether an event may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

// Name returns the limiter's name.
func (l *Limiter) Name() string {
	return l.name
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.bucket.Burst()
}
