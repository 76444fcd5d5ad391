package emergency

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultStateKey is the Redis key holding the latch record.
const DefaultStateKey = "emergency:state"

// RedisStore keeps the latch record in a single JSON value so every
// gateway instance observes the same state.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithStateKey overrides the storage key.
func WithStateKey(key string) RedisStoreOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisStore creates a Redis-backed latch store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    DefaultStateKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Load(ctx context.Context) (State, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Never written: implicitly inactive.
		return State{}, nil
	}
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		// A payload we cannot parse is indistinguishable from tampering;
		// surfacing an error makes the latch fail closed.
		return State{}, errors.Join(ErrMalformedState, err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
