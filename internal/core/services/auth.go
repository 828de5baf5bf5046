package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/core/ports/driving"
	"github.com/custodia-labs/xbm/internal/logger"
)

// DefaultLoginTimeout bounds how long Login waits for the browser redirect.
const DefaultLoginTimeout = 5 * time.Minute

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

// ReceiverFactory creates a callback receiver expecting state.
type ReceiverFactory func(state string) driven.CallbackReceiver

// AuthService runs the OAuth login flow and manages the stored token.
type AuthService struct {
	client      driven.OAuthClient
	store       driven.TokenStore
	newReceiver ReceiverFactory
	timeout     time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(client driven.OAuthClient, store driven.TokenStore, newReceiver ReceiverFactory) *AuthService {
	return &AuthService{
		client:      client,
		store:       store,
		newReceiver: newReceiver,
		timeout:     DefaultLoginTimeout,
	}
}

// WithTimeout overrides the login timeout.
func (s *AuthService) WithTimeout(d time.Duration) *AuthService {
	s.timeout = d
	return s
}

// Login runs the authorization code flow with PKCE and stores the token.
func (s *AuthService) Login(ctx context.Context, openURL func(url string) error) (*domain.OAuthToken, error) {
	state := uuid.NewString()
	verifier := s.client.GenerateVerifier()

	receiver := s.newReceiver(state)
	if err := receiver.Start(); err != nil {
		return nil, fmt.Errorf("start callback server: %w", err)
	}
	defer func() {
		if err := receiver.Stop(); err != nil {
			logger.Debug("stop callback server: %v", err)
		}
	}()

	redirectURI := receiver.RedirectURI()
	authURL := s.client.AuthCodeURL(state, verifier, redirectURI)
	logger.Debug("waiting for callback on %s", redirectURI)

	if openURL != nil {
		if err := openURL(authURL); err != nil {
			logger.Warn("open browser: %v", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	code, err := receiver.WaitForCode(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no authorization received within %s", domain.ErrAuth, s.timeout)
		}
		return nil, err
	}

	token, err := s.client.Exchange(ctx, code, verifier, redirectURI)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	logger.Info("logged in, token expires %s", token.Expiry.Format(time.RFC3339))
	return token, nil
}

// Status returns the stored token, or domain.ErrNotFound.
func (s *AuthService) Status(ctx context.Context) (*domain.OAuthToken, error) {
	return s.store.Load(ctx)
}

// Logout removes the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
