package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out consecutive sends of a batch.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows one send per interval. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next send is allowed.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
