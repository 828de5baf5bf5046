package domain

import (
	"fmt"
	"time"
)

// Configuration keys, addressed with dot notation.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyOutputDir     = "sync.output_dir"
	KeyMediaDir      = "sync.media_dir"
	KeyPageSize      = "sync.page_size"
	KeyMediaTypes    = "sync.media_types"
	KeySkipErrors    = "sync.skip_errors"
	KeyDownloadMedia = "sync.download_media"

	KeyMediaMaxRetries  = "media.max_retries"
	KeyMediaConcurrency = "media.concurrency"
	KeyMediaTimeout     = "media.timeout"

	KeyRenderBaseURL = "render.base_url"
	KeyAPIBaseURL    = "api.base_url"

	KeyClientID     = "auth.client_id"
	KeyClientSecret = "auth.client_secret"
	KeyRedirectPort = "auth.redirect_port"
)

// SettingKeys lists every recognised configuration key.
var SettingKeys = []string{
	KeyOutputDir, KeyMediaDir, KeyPageSize, KeyMediaTypes, KeySkipErrors, KeyDownloadMedia,
	KeyMediaMaxRetries, KeyMediaConcurrency, KeyMediaTimeout,
	KeyRenderBaseURL, KeyAPIBaseURL,
	KeyClientID, KeyClientSecret, KeyRedirectPort,
}

// IsSettingKey reports whether key is recognised.
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Environment variables that override configuration.
const (
	EnvClientID     = "X_CLIENT_ID"
	EnvClientSecret = "X_CLIENT_SECRET"
)

// AppSettings holds all application configuration.
type AppSettings struct {
	Sync   SyncSettings
	Media  MediaSettings
	Render RenderSettings
	API    APISettings
	Auth   AuthSettings
}

// SyncSettings are the defaults for a sync run. Flags override them.
type SyncSettings struct {
	OutputDir     string
	MediaDir      string
	PageSize      int
	MediaTypes    []MediaType
	SkipErrors    bool
	DownloadMedia bool
}

// MediaSettings tune attachment downloads.
type MediaSettings struct {
	MaxRetries  int
	Concurrency int
	Timeout     time.Duration
}

// RenderSettings configure markdown output.
type RenderSettings struct {
	// BaseURL is the site post links point at.
	BaseURL string
}

// APISettings configure the bookmarks API client.
type APISettings struct {
	BaseURL string
}

// AuthSettings identify the registered OAuth application.
type AuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectPort int
}

// Setting defaults.
const (
	DefaultMediaMaxRetries  = 2
	DefaultMediaConcurrency = 4
	DefaultMediaTimeout     = 30 * time.Second
	DefaultRedirectPort     = 8000
)

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Sync: SyncSettings{
			OutputDir:     ".",
			PageSize:      DefaultPageSize,
			DownloadMedia: true,
		},
		Media: MediaSettings{
			MaxRetries:  DefaultMediaMaxRetries,
			Concurrency: DefaultMediaConcurrency,
			Timeout:     DefaultMediaTimeout,
		},
		Auth: AuthSettings{
			RedirectPort: DefaultRedirectPort,
		},
	}
}

// OAuthApp returns the OAuth application described by the settings.
func (s AppSettings) OAuthApp() OAuthAppConfig {
	return OAuthAppConfig{
		ClientID:     s.Auth.ClientID,
		ClientSecret: s.Auth.ClientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", s.Auth.RedirectPort),
		Scopes:       DefaultScopes,
	}
}

// SyncOptions returns the run options implied by the settings.
func (s AppSettings) SyncOptions() SyncOptions {
	return SyncOptions{
		OutputDir:         s.Sync.OutputDir,
		MediaDir:          s.Sync.MediaDir,
		PageSize:          s.Sync.PageSize,
		DownloadMedia:     s.Sync.DownloadMedia,
		AllowedMediaTypes: s.Sync.MediaTypes,
		SkipErrors:        s.Sync.SkipErrors,
	}
}

// Validate checks the settings for values no run could use.
func (s AppSettings) Validate() error {
	if s.Sync.PageSize < 0 || s.Sync.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size %d outside 1-%d", ErrInvalidInput, s.Sync.PageSize, MaxPageSize)
	}
	if s.Media.MaxRetries < 0 {
		return fmt.Errorf("%w: media max retries must not be negative", ErrInvalidInput)
	}
	if s.Media.Concurrency < 1 {
		return fmt.Errorf("%w: media concurrency must be at least 1", ErrInvalidInput)
	}
	if s.Auth.RedirectPort < 0 || s.Auth.RedirectPort > 65535 {
		return fmt.Errorf("%w: redirect port %d", ErrInvalidInput, s.Auth.RedirectPort)
	}
	for _, t := range s.Sync.MediaTypes {
		if t == MediaOther {
			continue
		}
		if ParseMediaType(string(t)) != t {
			return fmt.Errorf("%w: media type %q", ErrInvalidInput, t)
		}
	}
	return nil
}

// ParseMediaTypes converts wire values, rejecting unknown ones.
func ParseMediaTypes(values []string) ([]MediaType, error) {
	var types []MediaType
	for _, v := range values {
		t := ParseMediaType(v)
		if t == MediaOther && v != string(MediaOther) {
			return nil, fmt.Errorf("%w: unknown media type %q (want photo, video, animated_gif)", ErrInvalidInput, v)
		}
		types = append(types, t)
	}
	return types, nil
}
