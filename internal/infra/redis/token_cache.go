package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores session tokens in Redis so a client keeps its remote
// question history across reconnects and service restarts. Entries expire
// with the configured TTL; the remote service forgets idle tokens on a
// similar horizon anyway.
type TokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenCache(client *redis.Client, ttl time.Duration) *TokenCache {
	return &TokenCache{client: client, ttl: ttl}
}

func (c *TokenCache) Load(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (c *TokenCache) Save(ctx context.Context, key, token string) error {
	return c.client.Set(ctx, c.key(key), token, c.ttl).Err()
}

func (c *TokenCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *TokenCache) key(clientID string) string {
	return "trivia:token:" + clientID
}
