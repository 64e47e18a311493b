package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hostedid/accounts/internal/config"
	"github.com/redis/go-redis/v9"
)

// Redis wraps the Redis client
type Redis struct {
	*redis.Client
}

// NewRedis creates a new Redis connection
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     100,
		MinIdleConns: 10,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

// WrapRedis wraps an existing client without pinging it
func WrapRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// HealthCheck verifies the Redis connection is healthy
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.Ping(ctx).Err()
}

// Incr increments a key's value
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.Client.Incr(ctx, key).Result()
}

// Expire sets a TTL on an existing key
func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

// Push prepends value to the list at key
func (r *Redis) Push(ctx context.Context, key string, value []byte) error {
	return r.LPush(ctx, key, value).Err()
}

// BlockingPop removes the tail of the list at key, waiting up to timeout.
// It returns redis.Nil when nothing arrived in time.
func (r *Redis) BlockingPop(ctx context.Context, key string, timeout time.Duration) (string, error) {
	res, err := r.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return "", err
	}
	// res is [key, value]
	return res[1], nil
}
