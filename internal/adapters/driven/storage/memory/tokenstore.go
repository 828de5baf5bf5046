package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu    sync.RWMutex
	token *domain.OAuthToken
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Load returns the stored token or domain.ErrNotFound.
func (s *TokenStore) Load(_ context.Context) (*domain.OAuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, domain.ErrNotFound
	}
	t := *s.token
	return &t, nil
}

// Save replaces the stored token.
func (s *TokenStore) Save(_ context.Context, token *domain.OAuthToken) error {
	if token == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *token
	s.token = &t
	return nil
}

// Delete removes the stored token.
func (s *TokenStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}
