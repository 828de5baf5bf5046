package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/xbm/internal/core/domain"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider("env-token")

	token, err := p.GetToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
	assert.Equal(t, domain.AuthMethodStatic, p.AuthMethod())
}

func TestStaticProvider_Empty(t *testing.T) {
	_, err := NewStaticProvider("").GetToken(context.Background())
	require.ErrorIs(t, err, domain.ErrAuth)
}

func TestNewTokenProvider(t *testing.T) {
	store := memory.NewTokenStore()

	t.Run("environment token wins", func(t *testing.T) {
		getenv := func(key string) string {
			if key == EnvAccessToken {
				return "from-env"
			}
			return ""
		}
		p := NewTokenProvider(getenv, store, domain.OAuthAppConfig{})
		assert.IsType(t, &StaticProvider{}, p)
	})

	t.Run("falls back to stored oauth", func(t *testing.T) {
		p := NewTokenProvider(func(string) string { return "" }, store, domain.OAuthAppConfig{})
		assert.IsType(t, &OAuthProvider{}, p)
	})
}
