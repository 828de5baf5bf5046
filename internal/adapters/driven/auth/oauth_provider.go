package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/logger"
)

// refreshBuffer refreshes tokens this long before they expire.
const refreshBuffer = 5 * time.Minute

// Ensure OAuthProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*OAuthProvider)(nil)

// OAuthProvider provides OAuth access tokens with automatic refresh.
// Refreshed tokens are written back to the token store, since the platform
// rotates refresh tokens on every use.
type OAuthProvider struct {
	store  driven.TokenStore
	config *oauth2.Config

	mu      sync.Mutex
	source  oauth2.TokenSource
	current *oauth2.Token
}

// NewOAuthProvider creates a provider reading tokens from store.
func NewOAuthProvider(store driven.TokenStore, app domain.OAuthAppConfig) *OAuthProvider {
	return &OAuthProvider{
		store:  store,
		config: OAuth2Config(app),
	}
}

// OAuth2Config converts the application settings to an oauth2.Config.
func OAuth2Config(app domain.OAuthAppConfig) *oauth2.Config {
	authURL, tokenURL := app.AuthURL, app.TokenURL
	if authURL == "" {
		authURL = domain.DefaultAuthURL
	}
	if tokenURL == "" {
		tokenURL = domain.DefaultTokenURL
	}
	scopes := app.Scopes
	if len(scopes) == 0 {
		scopes = domain.DefaultScopes
	}
	// Public clients identify themselves in the form body.
	style := oauth2.AuthStyleInHeader
	if app.ClientSecret == "" {
		style = oauth2.AuthStyleInParams
	}

	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  app.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: style,
		},
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (p *OAuthProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		stored, err := p.store.Load(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: not logged in, run `xbm auth login`", domain.ErrAuth)
		}
		if err != nil {
			return "", fmt.Errorf("%w: load token: %w", domain.ErrAuth, err)
		}
		p.current = ToOAuth2(stored)
		// The refreshing source keeps ctx for token endpoint calls.
		p.source = oauth2.ReuseTokenSourceWithExpiry(p.current, p.config.TokenSource(ctx, p.current), refreshBuffer)
	}

	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: refresh token: %w", domain.ErrAuth, err)
	}

	if tok.AccessToken != p.current.AccessToken {
		logger.Debug("access token refreshed, expires %s", tok.Expiry.Format(time.RFC3339))
		if err := p.store.Save(ctx, FromOAuth2(tok, p.config.Scopes)); err != nil {
			return "", fmt.Errorf("save refreshed token: %w", err)
		}
		p.current = tok
	}

	return tok.AccessToken, nil
}

// AuthMethod returns AuthMethodOAuth.
func (p *OAuthProvider) AuthMethod() domain.AuthMethod {
	return domain.AuthMethodOAuth
}

// InvalidateCache drops the in-memory token so the next call reloads the store.
func (p *OAuthProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = nil
	p.current = nil
}

// ToOAuth2 converts a stored token.
func ToOAuth2(t *domain.OAuthToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// FromOAuth2 converts a token for storage.
func FromOAuth2(t *oauth2.Token, scopes []string) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
		Scopes:       scopes,
	}
}
