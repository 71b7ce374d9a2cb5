package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/summit/internal/kvstore"
)

// KV is the persistent store backing a Session. *kvstore.Store satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Session is the explicit context for one signed-in user: the server
// address, the credential and the username. It implements api.KeySource so
// the transport always reads the current key.
type Session struct {
	mu       sync.RWMutex
	baseURL  string
	apiKey   string
	username string
	override string
	kv       KV
}

// LoadSession restores the stored credential. envKey, when set, overrides
// the stored key for this process without being persisted.
func LoadSession(ctx context.Context, kv KV, baseURL, envKey string) (*Session, error) {
	s := &Session{baseURL: baseURL, override: strings.TrimSpace(envKey), kv: kv}
	if kv == nil {
		return s, nil
	}
	key, err := kv.Get(ctx, kvstore.KeyAPIKey)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	user, err := kv.Get(ctx, kvstore.KeyUsername)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("load username: %w", err)
	}
	s.apiKey = key
	s.username = user
	return s, nil
}

// APIKey returns the active credential, preferring the environment override.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override != "" {
		return s.override
	}
	return s.apiKey
}

// Username returns the signed-in user, if known.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// BaseURL returns the server address the session belongs to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// LoggedIn reports whether any credential is available.
func (s *Session) LoggedIn() bool {
	return s.APIKey() != ""
}

// FromEnv reports whether the credential comes from the environment.
func (s *Session) FromEnv() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override != ""
}

func (s *Session) set(ctx context.Context, apiKey, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv != nil {
		if err := s.kv.Put(ctx, kvstore.KeyAPIKey, apiKey); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
		if username != "" {
			if err := s.kv.Put(ctx, kvstore.KeyUsername, username); err != nil {
				return fmt.Errorf("save username: %w", err)
			}
		}
	}
	s.apiKey = apiKey
	if username != "" {
		s.username = username
	}
	return nil
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv != nil {
		if err := s.kv.Delete(ctx, kvstore.KeyAPIKey, kvstore.KeyUsername); err != nil {
			return fmt.Errorf("clear credential: %w", err)
		}
	}
	s.apiKey = ""
	s.username = ""
	s.override = ""
	return nil
}
