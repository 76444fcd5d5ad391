package emergency

import (
	"context"
	"sync"
	"time"

	"github.com/coaching2100/sallyport/pkg/statemachine"
)

// Latch state-machine vocabulary. Transitions are manual only; there is
// no automatic expiry.
var (
	stateInactive = statemachine.StringState("inactive")
	stateActive   = statemachine.StringState("active")

	eventActivate   = statemachine.StringEvent("activate")
	eventDeactivate = statemachine.StringEvent("deactivate")
)

// DefaultCacheTTL bounds how stale an in-process view of the latch may be.
const DefaultCacheTTL = 3 * time.Second

// DefaultStoreTimeout bounds every store round-trip.
const DefaultStoreTimeout = 100 * time.Millisecond

// Latch is the global emergency switch. All reads and writes go through
// one durable Store; per-instance caching is bounded by a short TTL and
// fails closed: if the store cannot be read when the cache has expired,
// the latch reports active rather than the last known good value.
type Latch struct {
	store        Store
	cacheTTL     time.Duration
	storeTimeout time.Duration

	mu       sync.Mutex
	cached   State
	cachedAt time.Time
}

// LatchOption configures a Latch.
type LatchOption func(*Latch)

// WithCacheTTL overrides how long a loaded state may be served from cache.
// A zero TTL disables caching entirely.
func WithCacheTTL(ttl time.Duration) LatchOption {
	return func(l *Latch) {
		if ttl >= 0 {
			l.cacheTTL = ttl
		}
	}
}

// WithStoreTimeout overrides the per-call store timeout.
func WithStoreTimeout(d time.Duration) LatchOption {
	return func(l *Latch) {
		if d > 0 {
			l.storeTimeout = d
		}
	}
}

// NewLatch creates a Latch over the given durable store.
func NewLatch(store Store, opts ...LatchOption) (*Latch, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	l := &Latch{
		store:        store,
		cacheTTL:     DefaultCacheTTL,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Activate flips the latch on. Activating an already-active latch is a
// state-wise no-op so repeated incident commands are safe; the caller
// audits every attempt regardless. Authorization for this transition is
// the policy engine's job, not the latch's.
func (l *Latch) Activate(ctx context.Context, reason, actor string) error {
	return l.transition(ctx, eventActivate, func(now time.Time) State {
		return State{
			Active:      true,
			ActivatedAt: now,
			Reason:      reason,
			ActivatedBy: actor,
		}
	})
}

// Deactivate flips the latch off. Idempotent like Activate.
func (l *Latch) Deactivate(ctx context.Context, actor string) error {
	return l.transition(ctx, eventDeactivate, func(now time.Time) State {
		return State{
			Active:        false,
			DeactivatedAt: now,
			DeactivatedBy: actor,
		}
	})
}

// transition loads the authoritative state, replays it onto a fresh state
// machine, and fires the event; the machine's transition table is what
// rejects impossible moves, and firing from the already-target state is
// treated as the idempotent no-op.
func (l *Latch) transition(ctx context.Context, event statemachine.Event, next func(time.Time) State) error {
	storeCtx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	current, err := l.store.Load(storeCtx)
	if err != nil {
		return err
	}

	initial := stateInactive
	if current.Active {
		initial = stateActive
	}

	machine := statemachine.MustNew(initial,
		statemachine.WithTransition(stateInactive, stateActive, eventActivate,
			statemachine.WithAction(l.persist(next))),
		statemachine.WithTransition(stateActive, stateInactive, eventDeactivate,
			statemachine.WithAction(l.persist(next))),
	)

	if !machine.CanFire(ctx, event, nil) {
		// Already in the target state.
		return nil
	}

	if err := machine.Fire(ctx, event, nil); err != nil {
		return err
	}

	l.invalidate()
	return nil
}

func (l *Latch) persist(next func(time.Time) State) statemachine.Action {
	return func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.storeTimeout)
		defer cancel()
		return l.store.Save(storeCtx, next(time.Now()))
	}
}

// IsActive reports whether the latch is on. Any failure to produce a
// trustworthy answer (store unreachable, malformed payload, timeout)
// returns true. Denying traffic on a broken latch store is recoverable;
// admitting traffic during an incident is not.
func (l *Latch) IsActive(ctx context.Context) bool {
	state, err := l.Current(ctx)
	if err != nil {
		return true
	}
	return state.Active
}

// Current returns the latch state, serving from cache within the TTL.
func (l *Latch) Current(ctx context.Context) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cacheTTL > 0 && !l.cachedAt.IsZero() && time.Since(l.cachedAt) < l.cacheTTL {
		return l.cached, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	state, err := l.store.Load(storeCtx)
	if err != nil {
		// Expired cache plus unreachable store must not fall back to the
		// last known good value.
		return State{}, err
	}

	l.cached = state
	l.cachedAt = time.Now()
	return state, nil
}

func (l *Latch) invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cachedAt = time.Time{}
}
