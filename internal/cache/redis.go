// Package cache provides caching functionality using Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes.
const (
	idempotencyPrefix = "idem"
	// PublishedImagesKey holds the cached community image feed.
	PublishedImagesKey = "feed:published-images"
)

// Redis wraps the Redis client.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedis connects to Redis. uri may be a full redis:// URL or host:port.
func NewRedis(ctx context.Context, uri string, log *zap.Logger) (*Redis, error) {
	if !strings.Contains(uri, "://") {
		uri = "redis://" + uri
	}

	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", opt.Addr))

	return &Redis{client: client, log: log}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() {
	if err := r.client.Close(); err != nil {
		r.log.Warn("error closing redis connection", zap.Error(err))
		return
	}
	r.log.Info("disconnected from redis")
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Set stores a value in cache with TTL.
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

// SetNX stores a value only if the key does not exist yet.
func (r *Redis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.SetNX(ctx, key, data, ttl).Result()
}

// Get retrieves a value from cache.
// Returns false if key doesn't exist.
func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return true, nil
}

// Delete removes a key from cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// IdempotencyKey scopes a client-supplied Idempotency-Key to a user and an
// operation so the same key cannot collide across users or endpoints.
func IdempotencyKey(userID, operation, key string) string {
	return fmt.Sprintf("%s:%s:%s:%s", idempotencyPrefix, userID, operation, key)
}
