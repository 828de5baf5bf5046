package x

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// TokenSourceAdapter adapts the TokenProvider port to oauth2.TokenSource.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}

// NewHTTPClient returns an http.Client that authorises every request with a
// token from provider.
func NewHTTPClient(ctx context.Context, provider driven.TokenProvider, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := oauth2.NewClient(ctx, NewTokenSource(ctx, provider))
	hc.Timeout = timeout
	return hc
}
