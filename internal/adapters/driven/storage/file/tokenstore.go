package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// TokenFileName is the OAuth token file inside the state directory.
const TokenFileName = "token.json"

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the OAuth token in a JSON file readable only by the owner.
type TokenStore struct {
	filePath string
}

// NewTokenStore creates a store for stateDir/token.json.
func NewTokenStore(stateDir string) *TokenStore {
	return &TokenStore{filePath: filepath.Join(stateDir, TokenFileName)}
}

// Load returns the stored token or domain.ErrNotFound.
func (s *TokenStore) Load(_ context.Context) (*domain.OAuthToken, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: read token: %w", domain.ErrStorage, err)
	}

	var token domain.OAuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: decode token: %w", domain.ErrStorage, err)
	}
	if token.AccessToken == "" {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

// Save replaces the stored token.
func (s *TokenStore) Save(_ context.Context, token *domain.OAuthToken) error {
	if token == nil {
		return domain.ErrInvalidInput
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode token: %w", domain.ErrStorage, err)
	}

	if err := WriteAtomic(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("%w: save token: %w", domain.ErrStorage, err)
	}
	return nil
}

// Delete removes the token file.
func (s *TokenStore) Delete(_ context.Context) error {
	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete token: %w", domain.ErrStorage, err)
	}
	return nil
}

// Path returns the token file path.
func (s *TokenStore) Path() string {
	return s.filePath
}
