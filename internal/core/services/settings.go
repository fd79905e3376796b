package services

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBaseURL           = "marketplace.base_url"
	keyTokenURL          = "marketplace.token_url"
	keyClientID          = "marketplace.client_id"
	keyClientSecret      = "marketplace.client_secret"
	keyPageSize          = "marketplace.page_size"
	keyOrderPageSize     = "marketplace.order_page_size"
	keyRequestTimeout    = "marketplace.request_timeout"
	keyRequestsPerSecond = "marketplace.requests_per_second"
	keyMaxRetries        = "marketplace.max_retries"
	keyRunDeadline       = "sync.run_deadline"
	keyOrderLookback     = "sync.order_lookback"
	keyStockInterval     = "sync.stock_interval"
	keyOrderInterval     = "sync.order_interval"
	keySchedulerEnabled  = "sync.scheduler_enabled"
	keyStorageDriver     = "storage.driver"
	keyStorageDataDir    = "storage.data_dir"
	keyStorageDSN        = "storage.dsn"
	keyLockDriver        = "lock.driver"
	keyLockRedisAddr     = "lock.redis_addr"
	keyLockRedisPassword = "lock.redis_password"
	keyLockRedisDB       = "lock.redis_db"
	keyLockTTL           = "lock.ttl"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

// settingKinds lists every recognised key and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyBaseURL:           kindString,
	keyTokenURL:          kindString,
	keyClientID:          kindString,
	keyClientSecret:      kindString,
	keyPageSize:          kindInt,
	keyOrderPageSize:     kindInt,
	keyRequestTimeout:    kindDuration,
	keyRequestsPerSecond: kindFloat,
	keyMaxRetries:        kindInt,
	keyRunDeadline:       kindDuration,
	keyOrderLookback:     kindDuration,
	keyStockInterval:     kindDuration,
	keyOrderInterval:     kindDuration,
	keySchedulerEnabled:  kindBool,
	keyStorageDriver:     kindString,
	keyStorageDataDir:    kindString,
	keyStorageDSN:        kindString,
	keyLockDriver:        kindString,
	keyLockRedisAddr:     kindString,
	keyLockRedisPassword: kindString,
	keyLockRedisDB:       kindInt,
	keyLockTTL:           kindDuration,
}

// SettingsOverride adjusts settings after they are read from the config
// store, e.g. from environment variables.
type SettingsOverride func(*domain.AppSettings) error

// SettingsService reads typed settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	overrides   []SettingsOverride
	validate    *validator.Validate
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, overrides ...SettingsOverride) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		overrides:   overrides,
		validate:    validator.New(),
	}
}

// Get retrieves current application settings: defaults, then the config
// store, then overrides. The result is not validated.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Marketplace: domain.MarketplaceSettings{
			BaseURL:           s.getString(keyBaseURL, d.Marketplace.BaseURL),
			TokenURL:          s.getString(keyTokenURL, d.Marketplace.TokenURL),
			ClientID:          s.configStore.GetString(keyClientID),
			ClientSecret:      s.configStore.GetString(keyClientSecret),
			PageSize:          s.getInt(keyPageSize, d.Marketplace.PageSize),
			OrderPageSize:     s.getInt(keyOrderPageSize, d.Marketplace.OrderPageSize),
			RequestTimeout:    s.getDuration(keyRequestTimeout, d.Marketplace.RequestTimeout),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, d.Marketplace.RequestsPerSecond),
			MaxRetries:        s.getInt(keyMaxRetries, d.Marketplace.MaxRetries),
		},
		Sync: domain.SyncSettings{
			RunDeadline:      s.getDuration(keyRunDeadline, d.Sync.RunDeadline),
			OrderLookback:    s.getDuration(keyOrderLookback, d.Sync.OrderLookback),
			StockInterval:    s.getDuration(keyStockInterval, d.Sync.StockInterval),
			OrderInterval:    s.getDuration(keyOrderInterval, d.Sync.OrderInterval),
			SchedulerEnabled: s.getBool(keySchedulerEnabled, d.Sync.SchedulerEnabled),
		},
		Storage: domain.StorageSettings{
			Driver:  domain.StorageDriver(s.getString(keyStorageDriver, string(d.Storage.Driver))),
			DataDir: s.getString(keyStorageDataDir, d.Storage.DataDir),
			DSN:     s.configStore.GetString(keyStorageDSN),
		},
		Lock: domain.LockSettings{
			Driver:        domain.LockDriver(s.getString(keyLockDriver, string(d.Lock.Driver))),
			RedisAddr:     s.configStore.GetString(keyLockRedisAddr),
			RedisPassword: s.configStore.GetString(keyLockRedisPassword),
			RedisDB:       s.getInt(keyLockRedisDB, d.Lock.RedisDB),
			TTL:           s.getDuration(keyLockTTL, d.Lock.TTL),
		},
	}

	for _, override := range s.overrides {
		if err := override(settings); err != nil {
			return nil, fmt.Errorf("apply settings override: %w", err)
		}
	}

	return settings, nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	switch key {
	case keyStorageDriver:
		if !domain.StorageDriver(value).IsValid() {
			return fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidInput, value)
		}
	case keyLockDriver:
		if !domain.LockDriver(value).IsValid() {
			return fmt.Errorf("%w: unknown lock driver %q", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks settings before the engine starts.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// GetDefaults returns the default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func parseSetting(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return int64(n), nil
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getFloat accepts both TOML floats and integers.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return defaultVal
	}
}

// getDuration parses a duration string like "45m"; invalid values fall
// back to the default.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	str := s.configStore.GetString(key)
	if str == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
