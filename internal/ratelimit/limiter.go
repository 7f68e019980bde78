// Package ratelimit paces outbound calls to the upstream directions
// API. This is client-side politeness on top of the orchestrator's
// admission control, not a replacement for it.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter caps sustained upstream queries per second. A zero QPS means
// no pacing. Safe for concurrent use.
type Limiter struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
}

func New(qps int) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(qps), burst(qps)),
	}
}

// Wait blocks until a call may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.RLock()
	limiter := l.limiter
	limit := limiter.Limit()
	l.mu.RUnlock()

	if limit == 0 {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetQPS adjusts the sustained rate; zero disables pacing.
func (l *Limiter) SetQPS(qps int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(rate.Limit(qps))
	l.limiter.SetBurst(burst(qps))
}

func burst(qps int) int {
	if qps <= 0 {
		return 1
	}
	return qps
}
