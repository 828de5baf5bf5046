package driving

import "github.com/custodia-labs/xbm/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, overridden by the config
	// file, overridden by the environment.
	Get() (domain.AppSettings, error)

	// Set stores a single configuration value. Unknown keys are rejected.
	Set(key, value string) error

	// Values returns every configured key and its raw value.
	Values() map[string]any

	// Path returns the configuration file path.
	Path() string
}
