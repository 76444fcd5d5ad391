package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a counter and starts its expiry window in one
// atomic server-side step, so the rollover can never race the increment
// across gateway instances.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore is a shared counter store for multi-instance deployments.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the storage key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "ratelimit:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IncrementAndGet atomically increments the counter for key.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	raw, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, time.Time{}, err
	}

	count, _ := raw[0].(int64)
	ttlMillis, _ := raw[1].(int64)
	return count, time.Now().Add(time.Duration(ttlMillis) * time.Millisecond), nil
}

// Peek returns the current count and expiry without incrementing.
func (s *RedisStore) Peek(ctx context.Context, key string) (int64, time.Time, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, s.prefix+key)
	ttlCmd := pipe.PTTL(ctx, s.prefix+key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, time.Time{}, err
	}

	count, err := getCmd.Int64()
	if err == redis.Nil {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}

	ttl, err := ttlCmd.Result()
	if err != nil || ttl < 0 {
		return count, time.Time{}, nil
	}
	return count, time.Now().Add(ttl), nil
}

// Delete removes the counter for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
