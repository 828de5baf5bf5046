package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure Client implements the OAuthClient interface.
var _ driven.OAuthClient = (*Client)(nil)

// Client runs the authorization code flow against the platform's endpoints.
type Client struct {
	config *oauth2.Config
}

// NewClient creates a client for the registered application.
func NewClient(app domain.OAuthAppConfig) *Client {
	return &Client{config: OAuth2Config(app)}
}

// withRedirect returns a copy of the config using redirectURI.
func (c *Client) withRedirect(redirectURI string) *oauth2.Config {
	cfg := *c.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	return &cfg
}

// GenerateVerifier returns a random PKCE code verifier.
func (c *Client) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL returns the consent URL with an S256 PKCE challenge.
func (c *Client) AuthCodeURL(state, verifier, redirectURI string) string {
	return c.withRedirect(redirectURI).AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades code for a token, proving possession of verifier.
func (c *Client) Exchange(ctx context.Context, code, verifier, redirectURI string) (*domain.OAuthToken, error) {
	if c.config.ClientID == "" {
		return nil, fmt.Errorf("%w: no client id configured (set X_CLIENT_ID)", domain.ErrAuth)
	}

	cfg := c.withRedirect(redirectURI)
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", domain.ErrAuth, err)
	}
	return FromOAuth2(tok, cfg.Scopes), nil
}
