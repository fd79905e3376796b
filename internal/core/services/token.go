package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// Ensure TokenManager implements the interface.
var _ driving.TokenManager = (*TokenManager)(nil)

// TokenManager hands out valid access tokens for marketplace accounts,
// refreshing them lazily and persisting rotated credentials.
//
// Refreshes for one account are serialised: first by an in-process
// one-slot channel, whose wait honours ctx, then by the optional
// AccountLocker when several processes share the same credential store.
// After acquiring the locks the account is re-read from the store, so a
// refresh completed by another holder is reused instead of spending the
// (possibly already rotated) refresh token again.
type TokenManager struct {
	accounts  driven.AccountStore
	refresher driven.TokenRefresher
	locker    driven.AccountLocker
	now       func() time.Time

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// TokenManagerOption configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithAccountLocker adds a cross-process lock around refreshes.
func WithAccountLocker(l driven.AccountLocker) TokenManagerOption {
	return func(m *TokenManager) { m.locker = l }
}

// WithTokenClock overrides the clock used for expiry checks.
func WithTokenClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager creates a token manager.
func NewTokenManager(
	accounts driven.AccountStore,
	refresher driven.TokenRefresher,
	opts ...TokenManagerOption,
) *TokenManager {
	m := &TokenManager{
		accounts:  accounts,
		refresher: refresher,
		now:       time.Now,
		slots:     make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetValidAccessToken returns the account's access token if it is still
// valid, otherwise refreshes it. A valid token never causes a network call.
func (m *TokenManager) GetValidAccessToken(ctx context.Context, account *domain.Account) (string, error) {
	if account == nil {
		return "", fmt.Errorf("%w: nil account", domain.ErrInvalidInput)
	}
	if account.HasValidAccessToken(m.now()) {
		return account.AccessToken, nil
	}
	return m.refresh(ctx, account, false)
}

// RefreshAccessToken exchanges the refresh token for a new token pair
// regardless of the current token's expiry.
func (m *TokenManager) RefreshAccessToken(ctx context.Context, account *domain.Account) (string, error) {
	if account == nil {
		return "", fmt.Errorf("%w: nil account", domain.ErrInvalidInput)
	}
	return m.refresh(ctx, account, true)
}

func (m *TokenManager) refresh(ctx context.Context, account *domain.Account, force bool) (string, error) {
	slot := m.accountSlot(account.ID)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("wait for token refresh of account %s: %w", account.ID, ctx.Err())
	}
	defer func() { <-slot }()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "token:"+account.ID)
		if err != nil {
			return "", fmt.Errorf("lock account %s: %w", account.ID, err)
		}
		defer unlock()
	}

	// Another holder may have refreshed while we waited.
	current, err := m.accounts.Get(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("reload account %s: %w", account.ID, err)
	}
	if !force && current.HasValidAccessToken(m.now()) {
		account.ApplyTokens(tokensOf(current))
		return current.AccessToken, nil
	}
	// A forced refresh still uses the freshest refresh token.
	if force && current.AccessToken != account.AccessToken && current.HasValidAccessToken(m.now()) {
		account.ApplyTokens(tokensOf(current))
		return current.AccessToken, nil
	}

	if current.RefreshToken == "" {
		return "", fmt.Errorf("account %s: %w", account.ID, domain.ErrAuthRequired)
	}

	logger.Debug("Refreshing access token for account %s", account.ID)
	grant, err := m.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token for account %s: %w", account.ID, err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("refresh token for account %s: %w: empty access token", account.ID, domain.ErrTokenRefreshFailed)
	}

	now := m.now()
	tokens := domain.AccountTokens{
		AccessToken:     grant.AccessToken,
		RefreshToken:    current.RefreshToken,
		AccessExpiresAt: now.Add(grant.ExpiresIn),
		UpdatedAt:       now,
	}
	if grant.RefreshToken != "" {
		tokens.RefreshToken = grant.RefreshToken
	}

	if err := m.accounts.UpdateTokens(ctx, account.ID, tokens); err != nil {
		return "", fmt.Errorf("persist tokens for account %s: %w", account.ID, err)
	}
	account.ApplyTokens(tokens)

	logger.Info("Refreshed access token for account %s (expires %s)", account.ID, tokens.AccessExpiresAt.Format(time.RFC3339))
	return tokens.AccessToken, nil
}

func (m *TokenManager) accountSlot(accountID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[accountID]
	if !ok {
		slot = make(chan struct{}, 1)
		m.slots[accountID] = slot
	}
	return slot
}

func tokensOf(a *domain.Account) domain.AccountTokens {
	return domain.AccountTokens{
		AccessToken:     a.AccessToken,
		RefreshToken:    a.RefreshToken,
		AccessExpiresAt: a.AccessExpiresAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
