package auth

import (
	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// NewTokenProvider picks the provider for this run. An access token in the
// environment wins over stored OAuth tokens.
func NewTokenProvider(getenv func(string) string, store driven.TokenStore, app domain.OAuthAppConfig) driven.TokenProvider {
	if token := getenv(EnvAccessToken); token != "" {
		return NewStaticProvider(token)
	}
	return NewOAuthProvider(store, app)
}
