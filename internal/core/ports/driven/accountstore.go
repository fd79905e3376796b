package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// AccountStore persists connected marketplace accounts.
// Accounts are created by the linking flow; the sync engine only calls
// UpdateTokens.
type AccountStore interface {
	// Save stores an account. Creates if new, updates if exists.
	Save(ctx context.Context, account domain.Account) error

	// Get retrieves an account by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Account, error)

	// List returns all accounts.
	List(ctx context.Context) ([]domain.Account, error)

	// UpdateTokens writes rotated tokens, leaving every other column intact.
	// Returns domain.ErrNotFound if the account does not exist.
	UpdateTokens(ctx context.Context, accountID string, tokens domain.AccountTokens) error
}
