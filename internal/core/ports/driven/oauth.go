package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// OAuthClient performs the OAuth 2.0 authorization code flow with PKCE.
type OAuthClient interface {
	// GenerateVerifier returns a fresh PKCE code verifier.
	GenerateVerifier() string

	// AuthCodeURL returns the URL the user visits to grant access.
	AuthCodeURL(state, verifier, redirectURI string) string

	// Exchange trades an authorization code for a token.
	// Failures wrap domain.ErrAuth.
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*domain.OAuthToken, error)
}

// CallbackReceiver receives the authorization redirect on a loopback address.
// Each receiver delivers at most one result.
type CallbackReceiver interface {
	// Start begins listening.
	Start() error

	// RedirectURI is the address registered with the provider.
	RedirectURI() string

	// WaitForCode blocks until the redirect arrives or ctx is done.
	WaitForCode(ctx context.Context) (string, error)

	// Stop shuts the listener down.
	Stop() error
}
