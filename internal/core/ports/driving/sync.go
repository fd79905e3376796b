package driving

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// StockSyncer performs a full catalog resync for one account.
type StockSyncer interface {
	SyncStock(ctx context.Context, account *domain.Account) (*domain.StockSyncReport, error)
}

// OrderSyncer performs a cursor-driven incremental order sync for one account.
type OrderSyncer interface {
	SyncOrders(ctx context.Context, account *domain.Account) (*domain.OrderSyncReport, error)
}

// SyncOrchestrator coordinates sync runs across accounts.
type SyncOrchestrator interface {
	// Sync runs the syncers selected by kind for one account.
	Sync(ctx context.Context, accountID string, kind domain.SyncKind) error

	// SyncAll runs the syncers selected by kind for every account,
	// one goroutine per account. Returns the joined per-account errors.
	SyncAll(ctx context.Context, kind domain.SyncKind) error

	// Status returns sync status for an account.
	Status(ctx context.Context, accountID string) (*SyncStatus, error)
}

// SyncStatus represents the current state of an account's sync.
type SyncStatus struct {
	// AccountID identifies the account.
	AccountID string

	// Running indicates if sync is currently in progress.
	Running bool

	// Kind is what the running sync covers.
	Kind domain.SyncKind

	// Stock is the report of the last stock sync, if any.
	Stock *domain.StockSyncReport

	// Orders is the report of the last order sync, if any.
	Orders *domain.OrderSyncReport

	// LastError is the error of the last run, empty on success.
	LastError string
}
