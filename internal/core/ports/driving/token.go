package driving

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// TokenManager guarantees a usable access token for an account.
type TokenManager interface {
	// GetValidAccessToken returns the stored access token if it has not
	// expired, and refreshes it otherwise. On refresh the rotated tokens are
	// persisted and applied to account in place.
	GetValidAccessToken(ctx context.Context, account *domain.Account) (string, error)

	// RefreshAccessToken unconditionally performs a refresh_token grant.
	RefreshAccessToken(ctx context.Context, account *domain.Account) (string, error)
}
