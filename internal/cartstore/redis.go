package cartstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 30 * 24 * time.Hour
	DefaultJitter = 4 * time.Hour
)

// RedisStore keeps serialized carts as plain string values. Every save
// refreshes the TTL, so an abandoned cart expires TTL (plus jitter) after its
// last mutation.
type RedisStore struct {
	client  redis.UniversalClient
	baseTTL time.Duration
	jitter  time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl, jitter time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if jitter < 0 {
		jitter = 0
	}
	return &RedisStore{
		client:  client,
		baseTTL: ttl,
		jitter:  jitter,
	}
}

func (r *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	ttl := r.baseTTL
	if r.jitter > 0 {
		ttl += time.Duration(rand.Int63n(int64(r.jitter)))
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
