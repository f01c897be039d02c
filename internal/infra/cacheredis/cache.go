package cacheredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	identityinfra "github.com/chive-pub/chive-sub016/internal/infra/identity"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chive:identity:"

// Cache is the redis-backed endpoint cache, shared across AppView replicas.
type Cache struct {
	client *redis.Client
}

// New connects and verifies the backend is reachable, so callers can fall back
// to the in-process cache at startup instead of failing on first use.
func New(addr, password string, db int) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, identity string) (string, bool, error) {
	endpoint, err := c.client.Get(ctx, keyPrefix+identity).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return endpoint, true, nil
}

func (c *Cache) Put(ctx context.Context, identity, endpoint string, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+identity, endpoint, ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

var _ identityinfra.EndpointCache = (*Cache)(nil)
