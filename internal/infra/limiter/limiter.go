package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter caps both the rate and the number of in-flight backend requests.
type Limiter struct {
	semaphore   chan struct{}
	rateLimiter *rate.Limiter
}

func New(maxConcurrent, ratePerSecond int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &Limiter{
		semaphore:   make(chan struct{}, maxConcurrent),
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

// Acquire waits for a rate token and a free slot. The returned release
// frees the slot.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case l.semaphore <- struct{}{}:
		return func() { <-l.semaphore }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
