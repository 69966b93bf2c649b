// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package throttle enforces a minimum spacing between consecutive calls
// to a remote endpoint. arXiv asks clients to wait three seconds between
// API requests; every outbound search call goes through a Limiter.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces consecutive Acquire calls at least MinInterval apart.
// The first call passes immediately; each subsequent call blocks until
// the interval since the previous permitted call has elapsed.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter returns a Limiter enforcing minInterval between calls.
// A non-positive interval produces a limiter that never blocks.
func NewLimiter(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Acquire blocks until the minimum interval since the previous permitted
// call has elapsed, then returns. It returns early with ctx.Err() if the
// context is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
