package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure StockSyncer implements the interface.
var _ driving.StockSyncer = (*StockSyncer)(nil)

// DefaultPageSize is the catalog and order search page size.
const DefaultPageSize = 50

// StockSyncer performs a full scan of an account's catalog and writes the
// current availability of every resolvable SKU.
type StockSyncer struct {
	tokens      driving.TokenManager
	marketplace driven.Marketplace
	store       driven.StockStore
	pageSize    int
	now         func() time.Time
}

// NewStockSyncer creates a stock syncer. A pageSize <= 0 uses DefaultPageSize.
func NewStockSyncer(
	tokens driving.TokenManager,
	marketplace driven.Marketplace,
	store driven.StockStore,
	pageSize int,
) *StockSyncer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &StockSyncer{
		tokens:      tokens,
		marketplace: marketplace,
		store:       store,
		pageSize:    pageSize,
		now:         time.Now,
	}
}

// SetClock overrides the clock used for timestamps.
func (s *StockSyncer) SetClock(now func() time.Time) {
	s.now = now
}

// SyncStock resyncs the whole catalog. Running it twice against an unchanged
// catalog leaves the stored rows identical apart from timestamps.
//
// Pagination stops when the offset reaches the reported total or a page
// comes back empty, whichever happens first.
func (s *StockSyncer) SyncStock(ctx context.Context, account *domain.Account) (*domain.StockSyncReport, error) {
	report := &domain.StockSyncReport{
		AccountID: account.ID,
		StartedAt: s.now(),
	}
	seen := make(map[string]string)

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		token, err := s.tokens.GetValidAccessToken(ctx, account)
		if err != nil {
			return report, err
		}

		page, err := s.marketplace.SearchItems(ctx, token, account.SellerID, offset, s.pageSize)
		if err != nil {
			return report, fmt.Errorf("search items at offset %d: %w", offset, err)
		}
		if len(page.ItemIDs) == 0 {
			break
		}
		report.Pages++

		items, err := s.marketplace.GetItems(ctx, token, page.ItemIDs)
		if err != nil {
			return report, fmt.Errorf("get items at offset %d: %w", offset, err)
		}

		for i := range items {
			if err := s.processItem(ctx, account.ID, &items[i], seen, report); err != nil {
				return report, err
			}
		}

		offset += len(page.ItemIDs)
		if offset >= page.Total {
			break
		}
	}

	report.EndedAt = s.now()
	logger.Info("Stock sync for account %s: %d pages, %d items, %d upserted, %d skipped",
		account.ID, report.Pages, report.Items, report.Upserted, report.Skipped)
	return report, nil
}

// processItem writes one row per variation, or one row for the item itself
// when it has no variations.
func (s *StockSyncer) processItem(
	ctx context.Context,
	accountID string,
	item *domain.CatalogItem,
	seen map[string]string,
	report *domain.StockSyncReport,
) error {
	report.Items++

	if !item.HasVariations() {
		sku, ok := domain.ExtractSKU(item, nil)
		if !ok {
			report.Skipped++
			logger.Debug("Skipping item %s of account %s: no SKU", item.ID, accountID)
			return nil
		}
		return s.upsert(ctx, accountID, sku, item.ID, "", item.AvailableQuantity, item.Status, seen, report)
	}

	for _, v := range item.Variations {
		sku, ok := domain.ExtractSKU(v, item)
		if !ok {
			report.Skipped++
			logger.Debug("Skipping variation %s of item %s (account %s): no SKU", v.ID, item.ID, accountID)
			continue
		}
		if err := s.upsert(ctx, accountID, sku, item.ID, v.ID, v.AvailableQuantity, item.Status, seen, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *StockSyncer) upsert(
	ctx context.Context,
	accountID, sku, itemID, variationID string,
	quantity int,
	state domain.ItemState,
	seen map[string]string,
	report *domain.StockSyncReport,
) error {
	ref := itemID
	if variationID != "" {
		ref = itemID + "/" + variationID
	}
	if prev, dup := seen[sku]; dup && prev != ref {
		logger.Warn("SKU %q of account %s is used by both %s and %s; last one wins", sku, accountID, prev, ref)
	}
	seen[sku] = ref

	now := s.now()
	snapshot := domain.StockSnapshot{
		AccountID: accountID,
		SKU:       sku,
		Quantity:  quantity,
		Status:    domain.ClassifyStock(quantity, state),
		UpdatedAt: now,
	}
	if err := s.store.UpsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("upsert stock snapshot %s: %w", sku, err)
	}

	mapping := domain.SKUMapping{
		AccountID:      accountID,
		SKU:            sku,
		CatalogItemID:  itemID,
		VariationID:    variationID,
		LastResolvedAt: now,
	}
	if err := s.store.UpsertMapping(ctx, mapping); err != nil {
		return fmt.Errorf("upsert sku mapping %s: %w", sku, err)
	}

	report.Upserted++
	return nil
}
