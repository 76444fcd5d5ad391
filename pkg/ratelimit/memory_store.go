package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process counter store. A single mutex covers both
// the increment and the window rollover, so two concurrent requests can
// never both observe the pre-increment count and no rollover is applied
// twice.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

type counter struct {
	count   int64
	resetAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired counters are purged.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// NewMemoryStore creates an in-memory store with background cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		counters:        make(map[string]*counter),
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()
	return s
}

// IncrementAndGet increments the counter, rolling the window over when it
// has expired.
func (s *MemoryStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c, exists := s.counters[key]
	if !exists || !now.Before(c.resetAt) {
		c = &counter{count: 1, resetAt: now.Add(window)}
		s.counters[key] = c
		return c.count, c.resetAt, nil
	}

	c.count++
	return c.count, c.resetAt, nil
}

// Peek returns the current count without incrementing.
func (s *MemoryStore) Peek(ctx context.Context, key string) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.counters[key]
	if !exists || !time.Now().Before(c.resetAt) {
		return 0, time.Time{}, nil
	}
	return c.count, c.resetAt, nil
}

// Delete removes the counter for key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, c := range s.counters {
		if !now.Before(c.resetAt) {
			delete(s.counters, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}
