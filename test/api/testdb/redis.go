//go:build api

package testdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer holds the idempotency claims and the published-images feed
// cache during API tests.
type RedisContainer struct {
	Container testcontainers.Container
	// URI is a redis:// URL, the form REDIS_URI takes in production.
	URI    string
	Client *redis.Client
}

// SetupRedis starts a Redis testcontainer with persistence disabled.
func SetupRedis(ctx context.Context) (*RedisContainer, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		Cmd:          []string{"redis-server", "--save", "", "--appendonly", "no"},
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start redis container: %w", err)
	}

	rc := &RedisContainer{Container: container}
	if err := rc.connect(ctx); err != nil {
		_ = rc.Cleanup(ctx)
		return nil, err
	}
	return rc, nil
}

func (rc *RedisContainer) connect(ctx context.Context) error {
	host, err := rc.Container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := rc.Container.MappedPort(ctx, "6379")
	if err != nil {
		return err
	}

	rc.URI = fmt.Sprintf("redis://%s:%s/0", host, port.Port())
	opt, err := redis.ParseURL(rc.URI)
	if err != nil {
		return err
	}
	rc.Client = redis.NewClient(opt)

	if err := rc.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis container: %w", err)
	}
	return nil
}

// Cleanup closes the client and terminates the container.
func (rc *RedisContainer) Cleanup(ctx context.Context) error {
	if rc.Client != nil {
		_ = rc.Client.Close()
	}
	if rc.Container != nil {
		return rc.Container.Terminate(ctx)
	}
	return nil
}

// FlushDB drops every idempotency claim and cached feed between tests.
func (rc *RedisContainer) FlushDB(ctx context.Context) error {
	return rc.Client.FlushDB(ctx).Err()
}

// TTL reports how long key has left. It is negative when the key is missing
// or has no expiry.
func (rc *RedisContainer) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rc.Client.TTL(ctx, key).Result()
}

// Keys lists the keys matching pattern, e.g. "idem:*".
func (rc *RedisContainer) Keys(ctx context.Context, pattern string) ([]string, error) {
	return rc.Client.Keys(ctx, pattern).Result()
}
