package quiz

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TokenAPI is the remote session-token surface of the question bank.
type TokenAPI interface {
	RequestToken(ctx context.Context) (string, error)
	ResetToken(ctx context.Context, token string) error
}

// TokenCache persists tokens across reconnects (in-memory, Redis, etc).
// Implementations are best-effort; a miss or failure just forces a fresh
// token request.
type TokenCache interface {
	Load(ctx context.Context, key string) (token string, ok bool, err error)
	Save(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
}

// TokenStore owns the session token lifecycle for one client. Concurrent
// Request calls collapse into a single remote call, and Reset serializes
// behind any outstanding Request, so the held token is never clobbered by a
// racing replenish.
type TokenStore struct {
	api   TokenAPI
	cache TokenCache
	key   string

	sf singleflight.Group

	// opMu serializes remote token operations: a reset waits for an
	// outstanding request to settle and vice versa.
	opMu sync.Mutex

	mu    sync.Mutex
	token string
}

// NewTokenStore builds a store keyed by key in cache. A nil cache disables
// persistence.
func NewTokenStore(api TokenAPI, cache TokenCache, key string) *TokenStore {
	return &TokenStore{api: api, cache: cache, key: key}
}

// Current returns the held token, or the empty string when none is held and
// a Request must precede the next fetch.
func (s *TokenStore) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Restore hydrates the store from the cache, best-effort. Called once per
// connection so a returning client keeps its remote question history.
func (s *TokenStore) Restore(ctx context.Context) {
	if s.cache == nil {
		return
	}
	token, ok, err := s.cache.Load(ctx, s.key)
	if err != nil {
		log.Printf("token cache load failed for %s: %v", s.key, err)
		return
	}
	if !ok {
		return
	}
	s.mu.Lock()
	if s.token == "" {
		s.token = token
	}
	s.mu.Unlock()
}

// Request obtains a fresh token from the remote service. If a replenish
// completed while this call waited, the replenished token is kept as-is.
// On failure the store keeps no token; the error is returned for logging,
// never surfaced to the user directly.
func (s *TokenStore) Request(ctx context.Context) error {
	_, err, _ := s.sf.Do("request", func() (any, error) {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		s.mu.Lock()
		if s.token != "" {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()

		token, err := s.api.RequestToken(ctx)
		if err != nil {
			log.Printf("session token request failed: %v", err)
			return "", err
		}

		s.mu.Lock()
		s.token = token
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.Save(ctx, s.key, token); err != nil {
				log.Printf("token cache save failed for %s: %v", s.key, err)
			}
		}
		return token, nil
	})
	return err
}

// Reset invalidates the held token remotely, clears it, then immediately
// requests a replacement. Callers that depend on the new token must wait for
// Reset to return. With no token held it is a no-op.
func (s *TokenStore) Reset(ctx context.Context) error {
	s.opMu.Lock()

	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		s.opMu.Unlock()
		return nil
	}

	if err := s.api.ResetToken(ctx, token); err != nil {
		s.opMu.Unlock()
		log.Printf("session token reset failed: %v", err)
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, s.key); err != nil {
			log.Printf("token cache delete failed for %s: %v", s.key, err)
		}
	}
	s.opMu.Unlock()

	return s.Request(ctx)
}
