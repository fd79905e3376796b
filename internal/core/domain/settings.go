package domain

import "time"

// StorageDriver identifies the persistence backend.
type StorageDriver string

// Available storage drivers.
const (
	// StorageSQLite is the embedded single-file database.
	StorageSQLite StorageDriver = "sqlite"

	// StoragePostgres is a PostgreSQL server.
	StoragePostgres StorageDriver = "postgres"
)

// IsValid returns true if the storage driver is recognised.
func (d StorageDriver) IsValid() bool {
	return d == StorageSQLite || d == StoragePostgres
}

// LockDriver identifies how per-account token refreshes are serialised.
type LockDriver string

// Available lock drivers.
const (
	// LockMemory serialises within one process only.
	LockMemory LockDriver = "memory"

	// LockRedis serialises across processes sharing a Redis instance.
	LockRedis LockDriver = "redis"
)

// IsValid returns true if the lock driver is recognised.
func (d LockDriver) IsValid() bool {
	return d == LockMemory || d == LockRedis
}

// AppSettings holds the full engine configuration.
type AppSettings struct {
	Marketplace MarketplaceSettings
	Sync        SyncSettings
	Storage     StorageSettings
	Lock        LockSettings
}

// MarketplaceSettings configures the marketplace API client.
type MarketplaceSettings struct {
	// BaseURL is the API root (e.g. https://api.mercadolibre.com).
	BaseURL string `validate:"required,url"`
	// TokenURL is the OAuth token endpoint.
	TokenURL string `validate:"required,url"`
	// ClientID is the marketplace application identifier.
	ClientID string `validate:"required"`
	// ClientSecret is the marketplace application secret.
	ClientSecret string `validate:"required"`
	// PageSize is the catalog search page size.
	PageSize int `validate:"min=1,max=100"`
	// OrderPageSize is the order search page size.
	OrderPageSize int `validate:"min=1,max=100"`
	// RequestTimeout bounds each HTTP round-trip.
	RequestTimeout time.Duration `validate:"min=1000000000"`
	// RequestsPerSecond is the sustained client-side rate limit.
	RequestsPerSecond float64 `validate:"gt=0"`
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `validate:"min=0,max=10"`
}

// SyncSettings configures sync runs and the scheduler.
type SyncSettings struct {
	// RunDeadline bounds one account's run.
	RunDeadline time.Duration `validate:"min=1000000000"`
	// OrderLookback is the window used on an account's first order sync.
	OrderLookback time.Duration `validate:"min=1000000000"`
	// StockInterval is how often the scheduler runs stock sync.
	StockInterval time.Duration `validate:"min=60000000000"`
	// OrderInterval is how often the scheduler runs order sync.
	OrderInterval time.Duration `validate:"min=60000000000"`
	// SchedulerEnabled is the master switch for `run`.
	SchedulerEnabled bool
}

// StorageSettings configures the persistence gateway.
type StorageSettings struct {
	Driver StorageDriver `validate:"required,oneof=sqlite postgres"`
	// DataDir holds the SQLite database (sqlite driver only).
	DataDir string
	// DSN is the PostgreSQL connection string (postgres driver only).
	DSN string `validate:"required_if=Driver postgres"`
}

// LockSettings configures per-account refresh locking.
type LockSettings struct {
	Driver LockDriver `validate:"required,oneof=memory redis"`
	// RedisAddr is host:port (redis driver only).
	RedisAddr     string `validate:"required_if=Driver redis"`
	RedisPassword string
	RedisDB       int `validate:"min=0"`
	// TTL bounds how long a crashed holder can keep the lock.
	TTL time.Duration `validate:"min=1000000000"`
}

// DefaultAppSettings returns sensible defaults.
// Client credentials have no default and must be configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Marketplace: MarketplaceSettings{
			BaseURL:           "https://api.mercadolibre.com",
			TokenURL:          "https://api.mercadolibre.com/oauth/token",
			PageSize:          50,
			OrderPageSize:     50,
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
		Sync: SyncSettings{
			RunDeadline:      10 * time.Minute,
			OrderLookback:    7 * 24 * time.Hour,
			StockInterval:    1 * time.Hour,
			OrderInterval:    15 * time.Minute,
			SchedulerEnabled: true,
		},
		Storage: StorageSettings{
			Driver: StorageSQLite,
		},
		Lock: LockSettings{
			Driver: LockMemory,
			TTL:    30 * time.Second,
		},
	}
}

// SchedulerConfig derives the scheduler configuration from sync settings.
func (s *AppSettings) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: s.Sync.SchedulerEnabled,
		TaskConfigs: map[string]TaskConfig{
			TaskIDStockSync: {Enabled: true, Interval: s.Sync.StockInterval},
			TaskIDOrderSync: {Enabled: true, Interval: s.Sync.OrderInterval},
		},
	}
}
