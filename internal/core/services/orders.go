package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure OrderSyncer implements the interface.
var _ driving.OrderSyncer = (*OrderSyncer)(nil)

// DefaultOrderLookback is the window fetched on an account's first order sync.
const DefaultOrderLookback = 7 * 24 * time.Hour

// OrderSyncer ingests orders created since the account's cursor.
//
// The cursor is written once, after every fetched order and its items have
// been stored. A run that fails part-way leaves the cursor where it was, so
// the next run re-fetches the same window and overwrites what was already
// stored.
type OrderSyncer struct {
	tokens      driving.TokenManager
	marketplace driven.Marketplace
	orders      driven.OrderStore
	cursors     driven.CursorStore
	pageSize    int
	lookback    time.Duration
	now         func() time.Time
}

// NewOrderSyncer creates an order syncer. Zero values for pageSize and
// lookback select DefaultPageSize and DefaultOrderLookback.
func NewOrderSyncer(
	tokens driving.TokenManager,
	marketplace driven.Marketplace,
	orders driven.OrderStore,
	cursors driven.CursorStore,
	pageSize int,
	lookback time.Duration,
) *OrderSyncer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if lookback <= 0 {
		lookback = DefaultOrderLookback
	}
	return &OrderSyncer{
		tokens:      tokens,
		marketplace: marketplace,
		orders:      orders,
		cursors:     cursors,
		pageSize:    pageSize,
		lookback:    lookback,
		now:         time.Now,
	}
}

// SetClock overrides the clock used for the default window and timestamps.
func (s *OrderSyncer) SetClock(now func() time.Time) {
	s.now = now
}

// SyncOrders fetches orders with date_created >= the cursor (or now minus
// the lookback on the first run), ascending, and stores them. The cursor
// advances to the greatest date_created seen, and only if at least one
// order was processed.
func (s *OrderSyncer) SyncOrders(ctx context.Context, account *domain.Account) (*domain.OrderSyncReport, error) {
	jobName := domain.OrdersJobName(account.ID)
	report := &domain.OrderSyncReport{
		AccountID: account.ID,
		StartedAt: s.now(),
	}

	from, err := s.lowerBound(ctx, jobName)
	if err != nil {
		return report, err
	}
	report.From = from
	maxSeen := from

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		token, err := s.tokens.GetValidAccessToken(ctx, account)
		if err != nil {
			return report, err
		}

		page, err := s.marketplace.SearchOrders(ctx, token, domain.OrderQuery{
			SellerID:    account.SellerID,
			CreatedFrom: from,
			Offset:      offset,
			Limit:       s.pageSize,
		})
		if err != nil {
			return report, fmt.Errorf("search orders at offset %d: %w", offset, err)
		}
		if len(page.Orders) == 0 {
			break
		}

		for i := range page.Orders {
			created, err := s.storeOrder(ctx, account.ID, &page.Orders[i])
			if err != nil {
				return report, err
			}
			report.Orders++
			report.Items += len(page.Orders[i].Items)
			if created.After(maxSeen) {
				maxSeen = created
			}
		}

		offset += len(page.Orders)
		if offset >= page.Total {
			break
		}
	}

	if report.Orders > 0 {
		cursor := domain.SyncCursor{
			JobName:         jobName,
			LastProcessedAt: maxSeen,
			UpdatedAt:       s.now(),
		}
		if err := s.cursors.Save(ctx, cursor); err != nil {
			return report, fmt.Errorf("save cursor %s: %w", jobName, err)
		}
		report.CursorAdvancedTo = maxSeen
	}

	report.EndedAt = s.now()
	logger.Info("Order sync for account %s: %d orders, %d items since %s",
		account.ID, report.Orders, report.Items, from.Format(time.RFC3339))
	return report, nil
}

func (s *OrderSyncer) lowerBound(ctx context.Context, jobName string) (time.Time, error) {
	cursor, err := s.cursors.Get(ctx, jobName)
	if errors.Is(err, domain.ErrNotFound) {
		return s.now().Add(-s.lookback), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get cursor %s: %w", jobName, err)
	}
	return cursor.LastProcessedAt, nil
}

// storeOrder upserts the order header and replaces its items as one unit.
func (s *OrderSyncer) storeOrder(ctx context.Context, accountID string, mo *domain.MarketOrder) (time.Time, error) {
	order := mo.Order
	order.AccountID = accountID
	order.UpdatedAt = s.now()

	if err := s.orders.UpsertOrder(ctx, order); err != nil {
		return time.Time{}, fmt.Errorf("upsert order %s: %w", order.OrderID, err)
	}

	items := make([]domain.OrderItem, len(mo.Items))
	for i, item := range mo.Items {
		item.AccountID = accountID
		item.OrderID = order.OrderID
		items[i] = item
	}
	if err := s.orders.ReplaceItems(ctx, accountID, order.OrderID, items); err != nil {
		return time.Time{}, fmt.Errorf("replace items of order %s: %w", order.OrderID, err)
	}

	return order.DateCreated, nil
}
