package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Window is a fixed-window rate limiter. Each key gets a counter that
// resets when its window expires; the increment and the rollover are a
// single atomic store operation.
type Window struct {
	store        Store
	window       time.Duration
	storeTimeout time.Duration
}

// WindowOption configures a Window limiter.
type WindowOption func(*Window)

// WithWindow overrides the accounting window length.
func WithWindow(d time.Duration) WindowOption {
	return func(w *Window) {
		if d > 0 {
			w.window = d
		}
	}
}

// WithStoreTimeout overrides the per-call store timeout.
func WithStoreTimeout(d time.Duration) WindowOption {
	return func(w *Window) {
		if d > 0 {
			w.storeTimeout = d
		}
	}
}

// NewWindow creates a fixed-window limiter on the given store.
func NewWindow(store Store, opts ...WindowOption) (*Window, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	w := &Window{
		store:        store,
		window:       DefaultWindow,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Allow consumes one slot for the key. A store failure returns
// ErrStoreUnavailable; the caller must treat that as a denial, never as an
// unlimited pass.
func (w *Window) Allow(ctx context.Context, key string, limit int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	// The increment is a single atomic unit: it must complete consistently
	// even when the caller cancels mid-request, so the store call detaches
	// from the request's cancellation and carries only its own timeout.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.storeTimeout)
	defer cancel()

	count, resetAt, err := w.store.IncrementAndGet(storeCtx, key, w.window)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return w.result(count, limit, resetAt), nil
}

// Status reports the current window state without consuming a slot.
func (w *Window) Status(ctx context.Context, key string, limit int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	storeCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()

	count, resetAt, err := w.store.Peek(storeCtx, key)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if resetAt.IsZero() {
		resetAt = time.Now().Add(w.window)
	}

	r := w.result(count+1, limit, resetAt)
	r.Remaining = max(0, limit-int(count))
	return r, nil
}

// Reset clears the counter for the key.
func (w *Window) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	storeCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()

	return w.store.Delete(storeCtx, key)
}

func (w *Window) result(count int64, limit int, resetAt time.Time) *Result {
	return &Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		ResetAt:   resetAt,
	}
}
