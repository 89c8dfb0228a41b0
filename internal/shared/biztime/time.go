// Package biztime centralizes wall-clock access. All persisted timestamps are UTC.
package biztime

import (
	"sync"
	"time"
)

var (
	nowMu sync.RWMutex
	nowFn = time.Now
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	nowMu.RLock()
	defer nowMu.RUnlock()
	return nowFn().UTC()
}

// SetClock replaces the clock used by NowUTC and returns a function restoring the previous one.
// Intended for tests that exercise expiry deadlines.
func SetClock(fn func() time.Time) (restore func()) {
	nowMu.Lock()
	prev := nowFn
	nowFn = fn
	nowMu.Unlock()
	return func() {
		nowMu.Lock()
		nowFn = prev
		nowMu.Unlock()
	}
}

// Since returns the time elapsed since t according to NowUTC.
func Since(t time.Time) time.Duration {
	return NowUTC().Sub(t)
}
