package f1

import (
	"context"
	"time"
)

// Source fetches the raw upstream document for a resource.
type Source interface {
	Fetch(ctx context.Context, resource Resource) ([]byte, error)
}

// Store is the contract the snapshot store must satisfy. Save fully replaces
// the previous snapshot of the same resource.
type Store interface {
	Save(snapshot *Snapshot)
	Latest(resource Resource) (*Snapshot, error)
}

// RetryPolicy is an attempt budget with capped exponential delays. FetchOnce
// uses one for malformed bodies, the HTTP providers one for transport
// failures. MaxAttempts of 0 retries until success or cancellation.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy retries forever with a constant 5 second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:      5 * time.Second,
		MaxDelay:   5 * time.Second,
		Multiplier: 1,
	}
}

// Exhausted reports whether attempt (1-based) was the last one allowed.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// Backoff returns the delay to wait after the given failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.Delay
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * mult)
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
