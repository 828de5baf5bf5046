package domain

import "time"

// AuthMethod identifies how API requests are authenticated.
type AuthMethod string

const (
	// AuthMethodOAuth uses stored OAuth 2.0 tokens with refresh.
	AuthMethodOAuth AuthMethod = "oauth"
	// AuthMethodStatic uses a bearer token supplied through the environment.
	AuthMethodStatic AuthMethod = "static"
)

// OAuthToken represents stored OAuth credentials.
type OAuthToken struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
	// Scopes granted by the user, if the provider reported them.
	Scopes []string `json:"scopes,omitempty"`
}

// IsExpired returns true if the token has expired.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// CanRefresh returns true if a refresh token is available.
func (t *OAuthToken) CanRefresh() bool {
	return t.RefreshToken != ""
}

// OAuthAppConfig holds the OAuth application registered with the platform.
type OAuthAppConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Default OAuth endpoints and scopes for the bookmarks API.
const (
	DefaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL = "https://api.twitter.com/2/oauth2/token"
)

// DefaultScopes are the scopes required to read bookmarks and refresh tokens.
var DefaultScopes = []string{"offline.access", "bookmark.read", "tweet.read", "users.read"}
