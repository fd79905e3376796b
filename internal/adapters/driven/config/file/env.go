package file

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// envPrefix namespaces every recognised environment variable.
const envPrefix = "MARKETSYNC"

// EnvSettings holds settings supplied through the environment.
// Unset variables leave the stored setting untouched.
type EnvSettings struct {
	BaseURL       string `envconfig:"BASE_URL"`
	TokenURL      string `envconfig:"TOKEN_URL"`
	ClientID      string `envconfig:"CLIENT_ID"`
	ClientSecret  string `envconfig:"CLIENT_SECRET"`
	StorageDriver string `envconfig:"STORAGE_DRIVER"`
	DataDir       string `envconfig:"DATA_DIR"`
	StorageDSN    string `envconfig:"STORAGE_DSN"`
	LockDriver    string `envconfig:"LOCK_DRIVER"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       *int   `envconfig:"REDIS_DB"`

	SchedulerEnabled *bool `envconfig:"SCHEDULER_ENABLED"`
}

// LoadEnvSettings reads MARKETSYNC_* variables. Files in dotenvPaths (or
// ./.env when none are given) are loaded first; a missing file is ignored
// and variables already set in the environment win.
func LoadEnvSettings(dotenvPaths ...string) (*EnvSettings, error) {
	if err := godotenv.Load(dotenvPaths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var env EnvSettings
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &env, nil
}

// Apply overlays the environment onto settings.
func (e *EnvSettings) Apply(settings *domain.AppSettings) error {
	setString(&settings.Marketplace.BaseURL, e.BaseURL)
	setString(&settings.Marketplace.TokenURL, e.TokenURL)
	setString(&settings.Marketplace.ClientID, e.ClientID)
	setString(&settings.Marketplace.ClientSecret, e.ClientSecret)
	setString(&settings.Storage.DataDir, e.DataDir)
	setString(&settings.Storage.DSN, e.StorageDSN)
	setString(&settings.Lock.RedisAddr, e.RedisAddr)
	setString(&settings.Lock.RedisPassword, e.RedisPassword)

	if e.StorageDriver != "" {
		driver := domain.StorageDriver(e.StorageDriver)
		if !driver.IsValid() {
			return fmt.Errorf("%w: %s_STORAGE_DRIVER=%q", domain.ErrInvalidInput, envPrefix, e.StorageDriver)
		}
		settings.Storage.Driver = driver
	}
	if e.LockDriver != "" {
		driver := domain.LockDriver(e.LockDriver)
		if !driver.IsValid() {
			return fmt.Errorf("%w: %s_LOCK_DRIVER=%q", domain.ErrInvalidInput, envPrefix, e.LockDriver)
		}
		settings.Lock.Driver = driver
	}
	if e.RedisDB != nil {
		settings.Lock.RedisDB = *e.RedisDB
	}
	if e.SchedulerEnabled != nil {
		settings.Sync.SchedulerEnabled = *e.SchedulerEnabled
	}
	return nil
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
