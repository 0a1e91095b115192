package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "auth_token:"

// TokenCache remembers which user a token digest belongs to.
type TokenCache interface {
	Get(ctx context.Context, digest string) (userID uint, found bool, err error)
	Set(ctx context.Context, digest string, userID uint) error
}

type redisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenCache stores entries under auth_token:<digest>. A zero ttl
// keeps entries until Redis evicts them.
func NewRedisTokenCache(client *redis.Client, ttl time.Duration) TokenCache {
	return &redisTokenCache{client: client, ttl: ttl}
}

func (c *redisTokenCache) Get(ctx context.Context, digest string) (uint, bool, error) {
	val, err := c.client.Get(ctx, tokenKeyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for %s: %w", digest, err)
	}
	return uint(id), true, nil
}

func (c *redisTokenCache) Set(ctx context.Context, digest string, userID uint) error {
	if err := c.client.Set(ctx, tokenKeyPrefix+digest, strconv.FormatUint(uint64(userID), 10), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
