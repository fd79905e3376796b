package driving

import "github.com/custodia-labs/marketsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by key (e.g. "marketplace.page_size").
	// The raw value is parsed according to the key's type.
	Set(key, value string) error

	// Keys returns every settable key in display order.
	Keys() []string

	// Validate checks settings for completeness and range errors.
	Validate(settings *domain.AppSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
