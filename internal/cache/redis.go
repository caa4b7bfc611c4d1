package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// DefaultRedisPrefix namespaces lookup keys in a shared Redis
const DefaultRedisPrefix = "eslookup:result:"

// Redis stores lookup results in Redis with a TTL
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis connects to the Redis server at redisURL and verifies it with PING
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, prefix: DefaultRedisPrefix}
}

// Get implements Cache
func (r *Redis) Get(ctx context.Context, key string) (*types.LookupResult, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	result, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// Set implements Cache
func (r *Redis) Set(ctx context.Context, key string, result types.LookupResult) error {
	data, err := Encode(result)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close implements Cache
func (r *Redis) Close() error {
	return r.client.Close()
}
