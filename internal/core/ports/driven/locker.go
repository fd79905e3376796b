package driven

import "context"

// AccountLocker provides mutual exclusion keyed by name.
// It guards the token pair of an account against concurrent refreshes.
type AccountLocker interface {
	// Lock blocks until the lock is held or ctx is done.
	// The returned function releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
