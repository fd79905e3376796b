// Package redis provides an AccountLocker shared by every process that
// talks to the same Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure Locker implements the interface.
var _ driven.AccountLocker = (*Locker)(nil)

const (
	// DefaultKeyPrefix namespaces lock keys.
	DefaultKeyPrefix = "marketsync:lock"

	// DefaultTTL bounds how long a crashed holder keeps a lock.
	DefaultTTL = 30 * time.Second

	// DefaultPollInterval is the pause between acquisition attempts.
	DefaultPollInterval = 50 * time.Millisecond

	// releaseTimeout bounds the unlock round-trip.
	releaseTimeout = 5 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = goredis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Config holds locker settings.
type Config struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	TTL          time.Duration
	PollInterval time.Duration
}

// Locker implements a single-instance Redis lock: SET NX PX with a random
// token, released by compare-and-delete.
type Locker struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewLocker creates a locker and its Redis client.
func NewLocker(cfg Config) *Locker {
	return NewLockerWithClient(goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg)
}

// NewLockerWithClient creates a locker on an existing client.
// Addr, Password and DB in cfg are ignored.
func NewLockerWithClient(client *goredis.Client, cfg Config) *Locker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Locker{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		poll:   cfg.PollInterval,
	}
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (l *Locker) Close() error {
	return l.client.Close()
}

// Lock polls until the key is acquired or ctx is done. A Redis error other
// than contention is returned immediately.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.lockKey(key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", domain.ErrLockNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(k, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) releaser(k, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			n, err := releaseScript.Run(ctx, l.client, []string{k}, token).Int()
			if err != nil && !errors.Is(err, goredis.Nil) {
				logger.Warn("redis lock: releasing %s: %v", k, err)
				return
			}
			if n == 0 {
				logger.Warn("redis lock: %s expired before release", k)
			}
		})
	}
}

func (l *Locker) lockKey(key string) string {
	return l.prefix + ":" + key
}
