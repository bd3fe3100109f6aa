package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests to one backend.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows requestsPerMinute calls per minute, or returns nil when
// pacing is disabled.
func NewPacer(requestsPerMinute int) *Pacer {
	if requestsPerMinute <= 0 {
		return nil
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until the next request may start. A nil pacer never waits.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
