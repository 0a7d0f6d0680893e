package memory

import (
	"context"
	"sync"
)

// TokenCache is an in-process implementation of quiz.TokenCache, used when
// no Redis is configured. Tokens survive websocket reconnects but not a
// process restart.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[string]string)}
}

func (c *TokenCache) Load(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[key]
	return token, ok, nil
}

func (c *TokenCache) Save(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = token
	return nil
}

func (c *TokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
	return nil
}
