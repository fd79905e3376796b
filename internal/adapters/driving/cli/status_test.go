package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

func TestStatusCmd(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	stock := memory.NewStockStore()
	orders := memory.NewOrderStore()
	cursors := memory.NewCursorStore()

	require.NoError(t, accounts.Save(ctx, domain.Account{ID: "acc-1", Name: "Alpha", SellerID: "1", RefreshToken: "r"}))
	require.NoError(t, accounts.Save(ctx, domain.Account{ID: "acc-2", Name: "Beta", SellerID: "2", RefreshToken: "r"}))
	for _, sku := range []string{"SKU-1", "SKU-2"} {
		require.NoError(t, stock.UpsertSnapshot(ctx, domain.StockSnapshot{
			AccountID: "acc-1", SKU: sku, Quantity: 1, Status: domain.StockInStock,
		}))
	}
	require.NoError(t, orders.UpsertOrder(ctx, domain.Order{AccountID: "acc-1", OrderID: "100"}))
	require.NoError(t, cursors.Save(ctx, domain.SyncCursor{
		JobName:         domain.OrdersJobName("acc-1"),
		LastProcessedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}))

	orch := &mockSyncOrchestrator{statuses: map[string]*driving.SyncStatus{
		"acc-2": {AccountID: "acc-2", LastError: "reauthorization required"},
	}}
	withServices(t, &Services{
		SyncOrchestrator: orch,
		Accounts:         accounts,
		Stock:            stock,
		Orders:           orders,
		Cursors:          cursors,
	})

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Alpha (acc-1)")
	assert.Contains(t, out, "2024-03-01T08:00:00Z")
	assert.Contains(t, out, "Beta (acc-2)")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "error: reauthorization required")
}

func TestStatusCmd_NoAccounts(t *testing.T) {
	withServices(t, &Services{Accounts: memory.NewAccountStore()})

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "No accounts connected.")
}

func TestStatusCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := execute(t, "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "account store not configured")
}
