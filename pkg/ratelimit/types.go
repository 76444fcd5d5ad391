package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the budget accounting window.
const DefaultWindow = time.Minute

// DefaultStoreTimeout bounds every store round-trip so a slow backend can
// never stall the request path.
const DefaultStoreTimeout = 100 * time.Millisecond

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request fits the budget.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window rolls over.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter checks requests against a per-key budget.
type Limiter interface {
	// Allow consumes one slot for the key against the given limit.
	Allow(ctx context.Context, key string, limit int) (*Result, error)

	// Status returns the current state without consuming a slot.
	Status(ctx context.Context, key string, limit int) (*Result, error)

	// Reset clears the counter for the key.
	Reset(ctx context.Context, key string) error
}

// Store is the counter backend. IncrementAndGet must be atomic: two
// concurrent calls may never both observe the pre-increment value, and a
// window rollover happens atomically with the increment.
type Store interface {
	// IncrementAndGet increments the counter for key, starting a new
	// window when the previous one has expired, and returns the new count
	// and the window expiry.
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Peek returns the current count and expiry without incrementing.
	Peek(ctx context.Context, key string) (count int64, resetAt time.Time, err error)

	// Delete removes the counter for key.
	Delete(ctx context.Context, key string) error
}
