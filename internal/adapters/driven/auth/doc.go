// Package auth provides the OAuth client and token providers for the X API.
//
//   - Client: authorization code flow with PKCE
//   - OAuthProvider: stored OAuth 2.0 tokens, refreshed automatically and persisted after refresh
//   - StaticProvider: a bearer token supplied through X_ACCESS_TOKEN
package auth
