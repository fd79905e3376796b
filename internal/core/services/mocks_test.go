package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// fakeMarketplace serves an in-memory catalog and order list.
type fakeMarketplace struct {
	mu sync.Mutex

	items []domain.CatalogItem
	// totalOverride replaces the reported catalog total when non-zero.
	totalOverride int

	orders []domain.MarketOrder

	searchErr error
	getErr    error
	ordersErr error

	searchOffsets []int
	orderQueries  []domain.OrderQuery
	tokens        []string
}

var _ driven.Marketplace = (*fakeMarketplace)(nil)

func (f *fakeMarketplace) SearchItems(_ context.Context, token, _ string, offset, limit int) (*domain.CatalogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchOffsets = append(f.searchOffsets, offset)
	f.tokens = append(f.tokens, token)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	total := len(f.items)
	if f.totalOverride != 0 {
		total = f.totalOverride
	}
	page := &domain.CatalogPage{Total: total, Offset: offset, Limit: limit}
	for i := offset; i < len(f.items) && i < offset+limit; i++ {
		page.ItemIDs = append(page.ItemIDs, f.items[i].ID)
	}
	return page, nil
}

func (f *fakeMarketplace) GetItems(_ context.Context, _ string, ids []string) ([]domain.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	byID := make(map[string]domain.CatalogItem, len(f.items))
	for _, it := range f.items {
		byID[it.ID] = it
	}
	out := make([]domain.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeMarketplace) SearchOrders(_ context.Context, token string, q domain.OrderQuery) (*domain.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderQueries = append(f.orderQueries, q)
	f.tokens = append(f.tokens, token)
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}

	var matching []domain.MarketOrder
	for _, o := range f.orders {
		if !o.Order.DateCreated.Before(q.CreatedFrom) {
			matching = append(matching, o)
		}
	}
	page := &domain.OrderPage{Total: len(matching), Offset: q.Offset, Limit: q.Limit}
	for i := q.Offset; i < len(matching) && i < q.Offset+q.Limit; i++ {
		page.Orders = append(page.Orders, matching[i])
	}
	return page, nil
}

func (f *fakeMarketplace) offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.searchOffsets...)
}

// fakeRefresher counts refresh_token grants.
type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	seen    []string
	grant   domain.TokenGrant
	err     error
	delay   time.Duration
	rotated bool
}

var _ driven.TokenRefresher = (*fakeRefresher)(nil)

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*domain.TokenGrant, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = append(f.seen, refreshToken)
	if f.err != nil {
		return nil, f.err
	}
	grant := f.grant
	if f.rotated {
		grant.RefreshToken = refreshToken + "-next"
	}
	return &grant, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// staticTokens satisfies driving.TokenManager with a fixed token.
type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) GetValidAccessToken(_ context.Context, _ *domain.Account) (string, error) {
	return s.token, s.err
}

func (s staticTokens) RefreshAccessToken(_ context.Context, _ *domain.Account) (string, error) {
	return s.token, s.err
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
