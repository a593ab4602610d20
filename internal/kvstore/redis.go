package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMedium is a durable medium backed by Redis. Collections are stored
// as plain string values under a fixed prefix, no TTL.
type RedisMedium struct {
	client *redis.Client
	prefix string
}

// NewRedisMedium connects to Redis using a redis:// URL.
func NewRedisMedium(redisURL string) (*RedisMedium, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisMedium{client: client, prefix: "platform:"}, nil
}

// NewRedisMediumWithClient wraps an existing Redis client.
func NewRedisMediumWithClient(client *redis.Client) *RedisMedium {
	return &RedisMedium{client: client, prefix: "platform:"}
}

func (r *RedisMedium) key(key string) string {
	return r.prefix + key
}

func (r *RedisMedium) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisMedium) Save(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisMedium) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (r *RedisMedium) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisMedium) Close() error {
	return r.client.Close()
}
