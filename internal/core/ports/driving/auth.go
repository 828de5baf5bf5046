package driving

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// AuthService manages the user's API authorisation.
type AuthService interface {
	// Login runs the interactive OAuth flow and stores the resulting token.
	// openURL is called with the authorisation URL the user must visit.
	Login(ctx context.Context, openURL func(url string) error) (*domain.OAuthToken, error)

	// Status returns the stored token, or domain.ErrNotFound.
	Status(ctx context.Context) (*domain.OAuthToken, error)

	// Logout removes the stored token.
	Logout(ctx context.Context) error
}
