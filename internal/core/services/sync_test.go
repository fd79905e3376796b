package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// recordingSyncer implements StockSyncer and OrderSyncer, recording calls.
type recordingSyncer struct {
	mu        sync.Mutex
	calls     []string
	stockErr  error
	ordersErr error
	block     chan struct{}
	started   chan struct{}
	deadlines []bool
}

func (r *recordingSyncer) record(ctx context.Context, call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	_, ok := ctx.Deadline()
	r.deadlines = append(r.deadlines, ok)
}

func (r *recordingSyncer) SyncStock(ctx context.Context, account *domain.Account) (*domain.StockSyncReport, error) {
	r.record(ctx, "stock:"+account.ID)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return &domain.StockSyncReport{AccountID: account.ID, Upserted: 2}, r.stockErr
}

func (r *recordingSyncer) SyncOrders(ctx context.Context, account *domain.Account) (*domain.OrderSyncReport, error) {
	r.record(ctx, "orders:"+account.ID)
	return &domain.OrderSyncReport{AccountID: account.ID, Orders: 3}, r.ordersErr
}

func (r *recordingSyncer) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestOrchestrator(t *testing.T, syncer *recordingSyncer, ids ...string) *SyncOrchestrator {
	t.Helper()
	accounts := memory.NewAccountStore()
	for _, id := range ids {
		require.NoError(t, accounts.Save(context.Background(), domain.Account{ID: id, Name: id}))
	}
	return NewSyncOrchestrator(accounts, syncer, syncer, time.Minute)
}

func TestSyncOrchestrator_SyncAllKinds(t *testing.T) {
	syncer := &recordingSyncer{}
	o := newTestOrchestrator(t, syncer, "acc-1")

	err := o.Sync(context.Background(), "acc-1", domain.SyncKindAll)
	require.NoError(t, err)

	assert.Equal(t, []string{"stock:acc-1", "orders:acc-1"}, syncer.recorded())
	for _, hasDeadline := range syncer.deadlines {
		assert.True(t, hasDeadline)
	}

	status, err := o.Status(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, domain.SyncKindAll, status.Kind)
	require.NotNil(t, status.Stock)
	assert.Equal(t, 2, status.Stock.Upserted)
	require.NotNil(t, status.Orders)
	assert.Equal(t, 3, status.Orders.Orders)
	assert.Empty(t, status.LastError)
}

func TestSyncOrchestrator_SyncSingleKind(t *testing.T) {
	syncer := &recordingSyncer{}
	o := newTestOrchestrator(t, syncer, "acc-1")

	require.NoError(t, o.Sync(context.Background(), "acc-1", domain.SyncKindOrders))
	assert.Equal(t, []string{"orders:acc-1"}, syncer.recorded())
}

func TestSyncOrchestrator_StockFailureSkipsOrders(t *testing.T) {
	syncer := &recordingSyncer{stockErr: domain.ErrReauthorizationRequired}
	o := newTestOrchestrator(t, syncer, "acc-1")

	err := o.Sync(context.Background(), "acc-1", domain.SyncKindAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReauthorizationRequired)
	assert.Equal(t, []string{"stock:acc-1"}, syncer.recorded())

	status, err := o.Status(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Contains(t, status.LastError, "reauthorization required")
}

func TestSyncOrchestrator_InvalidKind(t *testing.T) {
	o := newTestOrchestrator(t, &recordingSyncer{}, "acc-1")
	err := o.Sync(context.Background(), "acc-1", "everything")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSyncOrchestrator_UnknownAccount(t *testing.T) {
	o := newTestOrchestrator(t, &recordingSyncer{})
	err := o.Sync(context.Background(), "ghost", domain.SyncKindStock)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOrchestrator_RejectsConcurrentRunForSameAccount(t *testing.T) {
	syncer := &recordingSyncer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	o := newTestOrchestrator(t, syncer, "acc-1")

	done := make(chan error, 1)
	go func() { done <- o.Sync(context.Background(), "acc-1", domain.SyncKindStock) }()
	<-syncer.started

	status, err := o.Status(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, status.Running)

	err = o.Sync(context.Background(), "acc-1", domain.SyncKindStock)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(syncer.block)
	require.NoError(t, <-done)
}

func TestSyncOrchestrator_OrdersRunWhileStockRuns(t *testing.T) {
	syncer := &recordingSyncer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	o := newTestOrchestrator(t, syncer, "acc-1")

	done := make(chan error, 1)
	go func() { done <- o.Sync(context.Background(), "acc-1", domain.SyncKindStock) }()
	<-syncer.started

	require.NoError(t, o.Sync(context.Background(), "acc-1", domain.SyncKindOrders))

	status, err := o.Status(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, domain.SyncKindStock, status.Kind)
	require.NotNil(t, status.Orders)
	assert.Equal(t, 3, status.Orders.Orders)

	err = o.Sync(context.Background(), "acc-1", domain.SyncKindAll)
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(syncer.block)
	require.NoError(t, <-done)

	status, err = o.Status(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, []string{"stock:acc-1", "orders:acc-1"}, syncer.recorded())
}

func TestSyncOrchestrator_SyncAllFansOut(t *testing.T) {
	syncer := &recordingSyncer{}
	o := newTestOrchestrator(t, syncer, "acc-1", "acc-2", "acc-3")

	require.NoError(t, o.SyncAll(context.Background(), domain.SyncKindStock))
	assert.ElementsMatch(t, []string{"stock:acc-1", "stock:acc-2", "stock:acc-3"}, syncer.recorded())
}

func TestSyncOrchestrator_SyncAllJoinsErrors(t *testing.T) {
	syncer := &recordingSyncer{ordersErr: assert.AnError}
	o := newTestOrchestrator(t, syncer, "acc-1", "acc-2")

	err := o.SyncAll(context.Background(), domain.SyncKindOrders)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "sync acc-1")
	assert.Contains(t, err.Error(), "sync acc-2")
	assert.Equal(t, 2, countJoined(err))
}

func TestSyncOrchestrator_StatusIdle(t *testing.T) {
	o := newTestOrchestrator(t, &recordingSyncer{})
	status, err := o.Status(context.Background(), "acc-9")
	require.NoError(t, err)
	assert.Equal(t, "acc-9", status.AccountID)
	assert.False(t, status.Running)
	assert.Nil(t, status.Stock)
}

func TestNewSyncOrchestrator_DefaultDeadline(t *testing.T) {
	o := NewSyncOrchestrator(memory.NewAccountStore(), &recordingSyncer{}, &recordingSyncer{}, 0)
	assert.Equal(t, DefaultRunDeadline, o.deadline)
}
