package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle token refresh transparently.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// If the current token is expired, it will be refreshed automatically.
	// Failures wrap domain.ErrAuth.
	GetToken(ctx context.Context) (string, error)

	// AuthMethod returns the authentication method in use.
	AuthMethod() domain.AuthMethod
}
