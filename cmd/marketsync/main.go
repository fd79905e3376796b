// Command marketsync synchronises marketplace stock and orders into a local
// database.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/config/file"
	memlock "github.com/custodia-labs/marketsync/internal/adapters/driven/lock/memory"
	redislock "github.com/custodia-labs/marketsync/internal/adapters/driven/lock/redis"
	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/marketsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/marketsync/internal/connectors/marketplace"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/services"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// startupTimeout bounds connecting to external storage and lock servers.
const startupTimeout = 30 * time.Second

// gateway is the persistence surface shared by the storage drivers.
type gateway interface {
	AccountStore() driven.AccountStore
	StockStore() driven.StockStore
	OrderStore() driven.OrderStore
	CursorStore() driven.CursorStore
	SchedulerStore() driven.SchedulerStore
	Close() error
}

func main() {
	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds the adapters and services and installs them in the CLI.
// Storage or engine failures are reported and leave the dependent commands
// unconfigured, so settings can still be inspected and fixed.
func wire() (func(), error) {
	cli.SetVersion(version)

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	env, err := file.LoadEnvSettings()
	if err != nil {
		return nil, err
	}

	settingsSvc := services.NewSettingsService(configStore, env.Apply)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}

	svcs := &cli.Services{
		SettingsService: settingsSvc,
		ConfigWatcher:   configStore,
	}
	cleanup := func() {}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	gw, err := openStorage(ctx, settings.Storage)
	if err != nil {
		logger.Warn("storage unavailable: %v", err)
		cli.SetServices(svcs)
		return cleanup, nil
	}
	cleanup = func() {
		if err := gw.Close(); err != nil {
			logger.Warn("closing storage: %v", err)
		}
	}

	svcs.Accounts = gw.AccountStore()
	svcs.Stock = gw.StockStore()
	svcs.Orders = gw.OrderStore()
	svcs.Cursors = gw.CursorStore()

	if err := settingsSvc.Validate(settings); err != nil {
		logger.Debug("sync engine disabled: %v", err)
		cli.SetServices(svcs)
		return cleanup, nil
	}

	locker, closeLocker, err := openLocker(ctx, settings.Lock)
	if err != nil {
		logger.Warn("lock unavailable, sync engine disabled: %v", err)
		cli.SetServices(svcs)
		return cleanup, nil
	}
	closeStorage := cleanup
	cleanup = func() {
		closeLocker()
		closeStorage()
	}

	m := settings.Marketplace
	client := marketplace.NewClient(marketplace.ConfigFromSettings(m))
	refresher := marketplace.NewTokenRefresher(m.TokenURL, m.ClientID, m.ClientSecret,
		&http.Client{Timeout: m.RequestTimeout})

	tokens := services.NewTokenManager(svcs.Accounts, refresher, services.WithAccountLocker(locker))
	stock := services.NewStockSyncer(tokens, client, svcs.Stock, m.PageSize)
	orders := services.NewOrderSyncer(tokens, client, svcs.Orders, svcs.Cursors,
		m.OrderPageSize, settings.Sync.OrderLookback)
	orch := services.NewSyncOrchestrator(svcs.Accounts, stock, orders, settings.Sync.RunDeadline)

	svcs.SyncOrchestrator = orch
	svcs.Scheduler = services.NewScheduler(settings.SchedulerConfig(), gw.SchedulerStore(), orch)

	cli.SetServices(svcs)
	return cleanup, nil
}

func openStorage(ctx context.Context, s domain.StorageSettings) (gateway, error) {
	switch s.Driver {
	case domain.StoragePostgres:
		return postgres.NewStore(ctx, s.DSN)
	case domain.StorageSQLite, "":
		return sqlite.NewStore(s.DataDir)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidInput, s.Driver)
	}
}

func openLocker(ctx context.Context, s domain.LockSettings) (driven.AccountLocker, func(), error) {
	switch s.Driver {
	case domain.LockRedis:
		locker := redislock.NewLocker(redislock.Config{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
			TTL:      s.TTL,
		})
		if err := locker.Ping(ctx); err != nil {
			_ = locker.Close()
			return nil, nil, err
		}
		return locker, func() { _ = locker.Close() }, nil
	case domain.LockMemory, "":
		return memlock.NewLocker(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown lock driver %q", domain.ErrInvalidInput, s.Driver)
	}
}
