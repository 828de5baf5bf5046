package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// TokenStore persists OAuth tokens.
type TokenStore interface {
	// Load returns the stored token or domain.ErrNotFound.
	Load(ctx context.Context) (*domain.OAuthToken, error)

	// Save replaces the stored token.
	Save(ctx context.Context, token *domain.OAuthToken) error

	// Delete removes the stored token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
}
