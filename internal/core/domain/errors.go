package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running for the account.
	ErrSyncInProgress = errors.New("sync in progress")

	// Authentication Errors.

	// ErrAuthRequired indicates the account has no refresh token to work with.
	ErrAuthRequired = errors.New("authentication required")

	// ErrReauthorizationRequired indicates the marketplace rejected the refresh
	// token. The account cannot sync until it is linked again.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrTokenRefreshFailed indicates token refresh failed for a reason other
	// than a rejected refresh token (network, 5xx, malformed response).
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Marketplace Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrLockNotAcquired indicates the per-account lock could not be taken.
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// IsCredentialFailure reports whether err means the account must be
// re-authorized before any further sync can succeed.
func IsCredentialFailure(err error) bool {
	return errors.Is(err, ErrReauthorizationRequired) || errors.Is(err, ErrAuthRequired)
}
