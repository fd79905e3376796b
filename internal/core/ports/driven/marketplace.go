package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// Marketplace is the subset of the marketplace API the engine consumes.
// Every call takes a valid access token; obtaining one is the caller's job.
type Marketplace interface {
	// SearchItems returns one page of the seller's catalog item IDs.
	SearchItems(ctx context.Context, accessToken, sellerID string, offset, limit int) (*domain.CatalogPage, error)

	// GetItems fetches full item detail, including variations and
	// attributes, for the given IDs. Items the marketplace cannot return
	// are omitted from the result.
	GetItems(ctx context.Context, accessToken string, ids []string) ([]domain.CatalogItem, error)

	// SearchOrders returns one page of orders created at or after
	// query.CreatedFrom, ascending by creation date.
	SearchOrders(ctx context.Context, accessToken string, query domain.OrderQuery) (*domain.OrderPage, error)
}

// TokenRefresher exchanges a refresh token for a new token pair.
type TokenRefresher interface {
	// Refresh performs a refresh_token grant. It does not retry.
	// A rejected refresh token is reported as domain.ErrReauthorizationRequired.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
}
