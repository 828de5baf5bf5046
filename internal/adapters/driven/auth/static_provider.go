package auth

import (
	"context"
	"fmt"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// EnvAccessToken selects the static provider when set.
const EnvAccessToken = "X_ACCESS_TOKEN"

// Ensure StaticProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticProvider)(nil)

// StaticProvider returns a fixed bearer token. It never refreshes.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider for token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken returns the token.
func (p *StaticProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrAuth, EnvAccessToken)
	}
	return p.token, nil
}

// AuthMethod returns AuthMethodStatic.
func (p *StaticProvider) AuthMethod() domain.AuthMethod {
	return domain.AuthMethodStatic
}
