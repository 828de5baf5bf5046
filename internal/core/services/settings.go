package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// getenv supplies environment overrides; nil disables them.
func NewSettingsService(configStore driven.ConfigStore, getenv func(string) string) *SettingsService {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &SettingsService{
		configStore: configStore,
		getenv:      getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	mediaTypes, err := domain.ParseMediaTypes(s.configStore.GetStringSlice(domain.KeyMediaTypes))
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("%s: %w", domain.KeyMediaTypes, err)
	}

	settings := domain.AppSettings{
		Sync: domain.SyncSettings{
			OutputDir:     s.getString(domain.KeyOutputDir, defaults.Sync.OutputDir),
			MediaDir:      s.configStore.GetString(domain.KeyMediaDir), // Empty derives from the output dir
			PageSize:      s.getInt(domain.KeyPageSize, defaults.Sync.PageSize),
			MediaTypes:    mediaTypes,
			SkipErrors:    s.getBool(domain.KeySkipErrors, defaults.Sync.SkipErrors),
			DownloadMedia: s.getBool(domain.KeyDownloadMedia, defaults.Sync.DownloadMedia),
		},
		Media: domain.MediaSettings{
			MaxRetries:  s.getInt(domain.KeyMediaMaxRetries, defaults.Media.MaxRetries),
			Concurrency: s.getInt(domain.KeyMediaConcurrency, defaults.Media.Concurrency),
			Timeout:     s.getDuration(domain.KeyMediaTimeout, defaults.Media.Timeout),
		},
		Render: domain.RenderSettings{
			BaseURL: s.configStore.GetString(domain.KeyRenderBaseURL),
		},
		API: domain.APISettings{
			BaseURL: s.configStore.GetString(domain.KeyAPIBaseURL),
		},
		Auth: domain.AuthSettings{
			ClientID:     s.getEnvOr(domain.EnvClientID, domain.KeyClientID),
			ClientSecret: s.getEnvOr(domain.EnvClientSecret, domain.KeyClientSecret),
			RedirectPort: s.getInt(domain.KeyRedirectPort, defaults.Auth.RedirectPort),
		},
	}

	if err := settings.Validate(); err != nil {
		return domain.AppSettings{}, err
	}
	return settings, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	if !domain.IsSettingKey(key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch key {
	case domain.KeyPageSize, domain.KeyMediaMaxRetries, domain.KeyMediaConcurrency, domain.KeyRedirectPort:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case domain.KeySkipErrors, domain.KeyDownloadMedia:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case domain.KeyMediaTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 30s", domain.ErrInvalidInput, key)
		}
		typed = value
	case domain.KeyMediaTypes:
		var parts []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if _, err := domain.ParseMediaTypes(parts); err != nil {
			return err
		}
		typed = parts
	default:
		typed = value
	}

	return s.configStore.Set(key, typed)
}

// Values returns every recognised key that is configured.
func (s *SettingsService) Values() map[string]any {
	values := make(map[string]any)
	for _, key := range domain.SettingKeys {
		if v, ok := s.configStore.Get(key); ok {
			values[key] = v
		}
	}
	return values
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getEnvOr(env, key string) string {
	if v := s.getenv(env); v != "" {
		return v
	}
	return s.configStore.GetString(key)
}
