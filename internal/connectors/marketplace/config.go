package marketplace

import (
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries for transient errors.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial delay between retries. It doubles on
	// every attempt.
	DefaultRetryDelay = time.Second

	// MultiGetLimit is the maximum number of ids per item multi-get.
	MultiGetLimit = 20
)

// Config holds client settings.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryDelay        time.Duration
}

// ConfigFromSettings derives a client config from application settings.
func ConfigFromSettings(s domain.MarketplaceSettings) Config {
	return Config{
		BaseURL:           s.BaseURL,
		RequestTimeout:    s.RequestTimeout,
		RequestsPerSecond: s.RequestsPerSecond,
		MaxRetries:        s.MaxRetries,
	}
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeout
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = DefaultRateLimit.BurstSize
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}
