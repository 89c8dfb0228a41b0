package paymentlock

import (
	"context"
)

// Locker provides per-payment mutual exclusion across workers and processes
type Locker interface {
	// TryLock acquires the lock of paymentID without waiting.
	// ok is false when another holder owns it. unlock is safe to call once.
	TryLock(ctx context.Context, paymentID uint) (unlock func(), ok bool, err error)
}
