package emergency_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching2100/sallyport/pkg/emergency"
)

// flakyStore wraps a MemoryStore and can be switched into failure mode.
type flakyStore struct {
	mu      sync.Mutex
	inner   *emergency.MemoryStore
	failing bool
}

func (s *flakyStore) fail(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = on
}

func (s *flakyStore) Load(ctx context.Context) (emergency.State, error) {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	if failing {
		return emergency.State{}, errors.New("store unreachable")
	}
	return s.inner.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, state emergency.State) error {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	if failing {
		return errors.New("store unreachable")
	}
	return s.inner.Save(ctx, state)
}

func newLatch(t *testing.T, store emergency.Store, opts ...emergency.LatchOption) *emergency.Latch {
	t.Helper()
	l, err := emergency.NewLatch(store, opts...)
	require.NoError(t, err)
	return l
}

func TestLatch_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := emergency.NewMemoryStore()
	latch := newLatch(t, store, emergency.WithCacheTTL(0))

	// Implicitly inactive before any write.
	assert.False(t, latch.IsActive(ctx))

	require.NoError(t, latch.Activate(ctx, "credential stuffing incident", "user-ops"))
	assert.True(t, latch.IsActive(ctx))

	state, err := latch.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "credential stuffing incident", state.Reason)
	assert.Equal(t, "user-ops", state.ActivatedBy)
	assert.False(t, state.ActivatedAt.IsZero())

	require.NoError(t, latch.Deactivate(ctx, "user-ops"))
	assert.False(t, latch.IsActive(ctx))

	state, err = latch.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-ops", state.DeactivatedBy)
	assert.False(t, state.DeactivatedAt.IsZero())
}

func TestLatch_Idempotency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := emergency.NewMemoryStore()
	latch := newLatch(t, store, emergency.WithCacheTTL(0))

	require.NoError(t, latch.Activate(ctx, "first", "actor-a"))
	first, err := latch.Current(ctx)
	require.NoError(t, err)

	// Second activation is a state-wise no-op: the original record stays.
	require.NoError(t, latch.Activate(ctx, "second", "actor-b"))
	second, err := latch.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Deactivating an inactive latch is equally safe.
	require.NoError(t, latch.Deactivate(ctx, "actor-a"))
	require.NoError(t, latch.Deactivate(ctx, "actor-b"))
	state, err := latch.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "actor-a", state.DeactivatedBy)
}

func TestLatch_FailsClosed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("read error reports active", func(t *testing.T) {
		store := &flakyStore{inner: emergency.NewMemoryStore()}
		latch := newLatch(t, store, emergency.WithCacheTTL(0))

		// Last successfully read value is inactive.
		require.False(t, latch.IsActive(ctx))

		store.fail(true)
		assert.True(t, latch.IsActive(ctx), "unreadable store must report active")
	})

	t.Run("expired cache does not serve last known good", func(t *testing.T) {
		store := &flakyStore{inner: emergency.NewMemoryStore()}
		latch := newLatch(t, store, emergency.WithCacheTTL(20*time.Millisecond))

		require.False(t, latch.IsActive(ctx))

		store.fail(true)
		// Within TTL the cached inactive value is still served.
		assert.False(t, latch.IsActive(ctx))

		time.Sleep(30 * time.Millisecond)
		assert.True(t, latch.IsActive(ctx))
	})

	t.Run("activation failure is surfaced", func(t *testing.T) {
		store := &flakyStore{inner: emergency.NewMemoryStore()}
		store.fail(true)
		latch := newLatch(t, store)

		assert.Error(t, latch.Activate(ctx, "reason", "actor"))
	})
}

func TestLatch_CacheInvalidatedOnTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := emergency.NewMemoryStore()
	latch := newLatch(t, store, emergency.WithCacheTTL(time.Hour))

	require.False(t, latch.IsActive(ctx))
	require.NoError(t, latch.Activate(ctx, "incident", "actor"))

	// The long-TTL cache must not hide the transition.
	assert.True(t, latch.IsActive(ctx))
}

func TestNewLatch_RequiresStore(t *testing.T) {
	t.Parallel()

	_, err := emergency.NewLatch(nil)
	assert.ErrorIs(t, err, emergency.ErrStoreRequired)
}
