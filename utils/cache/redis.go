package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// namespace prefixes every key so the API can share a Redis database
const namespace = "starbooks:"

const scanBatch = 100

// RedisCache is the Cache backed by a Redis server
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and pings it. A non-empty password or
// positive db overrides what the URL carries.
func NewRedisCache(redisURL, password string, db int) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if password != "" {
		opt.Password = password
	}
	if db > 0 {
		opt.DB = db
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func key(k string) string { return namespace + k }

func (r *RedisCache) Get(ctx context.Context, k string) (string, error) {
	val, err := r.client.Get(ctx, key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (r *RedisCache) Set(ctx context.Context, k string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key(k), value, expiration).Err()
}

// SetJSON stores value encoded as JSON
func (r *RedisCache) SetJSON(ctx context.Context, k string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Set(ctx, k, data, expiration)
}

// GetJSON decodes a value stored with SetJSON into dest
func (r *RedisCache) GetJSON(ctx context.Context, k string, dest interface{}) error {
	val, err := r.Get(ctx, k)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// DeletePrefix unlinks every key under prefix. SCAN is used instead of KEYS
// so large databases are not blocked.
func (r *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, key(prefix)+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

func (r *RedisCache) Exists(ctx context.Context, k string) (bool, error) {
	n, err := r.client.Exists(ctx, key(k)).Result()
	return n > 0, err
}

// Increment adds one to an integer counter, creating it at 1
func (r *RedisCache) Increment(ctx context.Context, k string) (int64, error) {
	return r.client.Incr(ctx, key(k)).Result()
}

func (r *RedisCache) Expire(ctx context.Context, k string, expiration time.Duration) error {
	return r.client.Expire(ctx, key(k), expiration).Err()
}

// TTL is negative for a missing key or one without an expiry
func (r *RedisCache) TTL(ctx context.Context, k string) (time.Duration, error) {
	return r.client.TTL(ctx, key(k)).Result()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
