package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// DefaultRunDeadline bounds one account's sync run.
const DefaultRunDeadline = 10 * time.Minute

// SyncOrchestrator runs stock and order syncs per account.
// Within one run everything is sequential; SyncAll fans out one goroutine
// per account. A stock run and an order run for the same account may
// overlap, but a syncer never runs twice at once for one account.
type SyncOrchestrator struct {
	accounts driven.AccountStore
	stock    driving.StockSyncer
	orders   driving.OrderSyncer
	deadline time.Duration

	// Status tracking
	mu       sync.RWMutex
	statuses map[string]*driving.SyncStatus
	active   map[string]*activeSyncers
}

// activeSyncers records which syncers are running for one account.
type activeSyncers struct {
	stock  bool
	orders bool
}

func (a *activeSyncers) overlaps(kind domain.SyncKind) bool {
	return (kind.IncludesStock() && a.stock) || (kind.IncludesOrders() && a.orders)
}

func (a *activeSyncers) mark(kind domain.SyncKind, running bool) {
	if kind.IncludesStock() {
		a.stock = running
	}
	if kind.IncludesOrders() {
		a.orders = running
	}
}

// kind reports what is running, or "" when idle.
func (a *activeSyncers) kind() domain.SyncKind {
	switch {
	case a.stock && a.orders:
		return domain.SyncKindAll
	case a.stock:
		return domain.SyncKindStock
	case a.orders:
		return domain.SyncKindOrders
	default:
		return ""
	}
}

// NewSyncOrchestrator creates a new sync orchestrator.
// A deadline <= 0 uses DefaultRunDeadline.
func NewSyncOrchestrator(
	accounts driven.AccountStore,
	stock driving.StockSyncer,
	orders driving.OrderSyncer,
	deadline time.Duration,
) *SyncOrchestrator {
	if deadline <= 0 {
		deadline = DefaultRunDeadline
	}
	return &SyncOrchestrator{
		accounts: accounts,
		stock:    stock,
		orders:   orders,
		deadline: deadline,
		statuses: make(map[string]*driving.SyncStatus),
		active:   make(map[string]*activeSyncers),
	}
}

// Sync runs the requested sync kind for one account. Stock runs before
// orders; a failure in either aborts the rest of the account's run.
// Returns ErrSyncInProgress if a syncer selected by kind is already
// running for the account.
func (o *SyncOrchestrator) Sync(ctx context.Context, accountID string, kind domain.SyncKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: sync kind %q", domain.ErrInvalidInput, kind)
	}

	account, err := o.accounts.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	if !o.begin(accountID, kind) {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrSyncInProgress)
	}

	runID := uuid.New().String()
	runCtx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	logger.Section("Sync " + accountID)
	logger.Info("Starting %s sync for account %s (run %s)", kind, accountID, runID)

	err = o.run(runCtx, account, kind)
	o.finish(accountID, kind, err)
	if err != nil {
		if domain.IsCredentialFailure(err) {
			logger.Error("Account %s needs re-authorization (run %s): %v", accountID, runID, err)
		} else {
			logger.Error("Sync of account %s failed (run %s): %v", accountID, runID, err)
		}
		return err
	}

	logger.Info("Sync of account %s complete (run %s)", accountID, runID)
	return nil
}

func (o *SyncOrchestrator) run(ctx context.Context, account *domain.Account, kind domain.SyncKind) error {
	if kind.IncludesStock() {
		report, err := o.stock.SyncStock(ctx, account)
		o.update(account.ID, func(s *driving.SyncStatus) { s.Stock = report })
		if err != nil {
			return fmt.Errorf("stock sync: %w", err)
		}
	}

	if kind.IncludesOrders() {
		report, err := o.orders.SyncOrders(ctx, account)
		o.update(account.ID, func(s *driving.SyncStatus) { s.Orders = report })
		if err != nil {
			return fmt.Errorf("order sync: %w", err)
		}
	}

	return nil
}

// SyncAll runs the requested sync kind for every account concurrently.
// Per-account failures are joined into the returned error.
func (o *SyncOrchestrator) SyncAll(ctx context.Context, kind domain.SyncKind) error {
	accounts, err := o.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, account := range accounts {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := o.Sync(ctx, id, kind); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("sync %s: %w", id, err))
				mu.Unlock()
			}
		}(account.ID)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Status returns the current or most recent sync status for an account.
func (o *SyncOrchestrator) Status(_ context.Context, accountID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.statuses[accountID]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}

	// Never synced in this process
	return &driving.SyncStatus{
		AccountID: accountID,
		Running:   false,
	}, nil
}

// begin claims the syncers selected by kind for the account. Returns false
// if any of them is already running.
func (o *SyncOrchestrator) begin(accountID string, kind domain.SyncKind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	active, ok := o.active[accountID]
	if !ok {
		active = &activeSyncers{}
		o.active[accountID] = active
	}
	if active.overlaps(kind) {
		return false
	}
	active.mark(kind, true)

	status, ok := o.statuses[accountID]
	if !ok {
		status = &driving.SyncStatus{AccountID: accountID}
		o.statuses[accountID] = status
	}
	status.Running = true
	status.Kind = active.kind()
	status.LastError = ""
	return true
}

func (o *SyncOrchestrator) update(accountID string, fn func(*driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.statuses[accountID]; ok {
		fn(status)
	}
}

func (o *SyncOrchestrator) finish(accountID string, kind domain.SyncKind, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	active := o.active[accountID]
	active.mark(kind, false)

	status := o.statuses[accountID]
	if still := active.kind(); still != "" {
		status.Kind = still
	} else {
		status.Running = false
		status.Kind = kind
	}
	if err != nil {
		status.LastError = err.Error()
	}
}
