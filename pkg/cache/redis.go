package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs TTLStore and QuotaTracker with a Redis instance, for
// deployments where the scan and settlement jobs share quota state.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, addr, prefix string, limit int64, window time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Redis{client: client, prefix: prefix, limit: limit, window: window}, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

// Get implements TTLStore.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set implements TTLStore.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Increment implements QuotaTracker. The expiry is set on first use so
// the counter resets itself when the window passes.
func (r *Redis) Increment(ctx context.Context, key string) (int64, error) {
	k := r.key("quota:" + key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, r.window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Remaining implements QuotaTracker.
func (r *Redis) Remaining(ctx context.Context, key string) (int64, error) {
	count, err := r.client.Get(ctx, r.key("quota:"+key)).Int64()
	if errors.Is(err, redis.Nil) {
		return r.limit, nil
	}
	if err != nil {
		return 0, err
	}
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetIfExpired implements QuotaTracker. Redis handles expiry itself;
// this only clears counters left without a TTL.
func (r *Redis) ResetIfExpired(ctx context.Context, key string) error {
	k := r.key("quota:" + key)
	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return err
	}
	if ttl < 0 {
		return r.client.Del(ctx, k).Err()
	}
	return nil
}
