package item

import (
	"sync"
	"time"
)

var (
	clockMu sync.RWMutex
	clock   = time.Now
)

// now returns the current time in UTC without a monotonic reading so values
// compare the same before and after a JSON round trip.
func now() time.Time {
	clockMu.RLock()
	fn := clock
	clockMu.RUnlock()
	return fn().UTC().Round(0)
}

// SetClock replaces the clock used by builders and returns a function that
// restores the previous one. Intended for tests.
func SetClock(fn func() time.Time) (restore func()) {
	clockMu.Lock()
	prev := clock
	clock = fn
	clockMu.Unlock()

	return func() {
		clockMu.Lock()
		clock = prev
		clockMu.Unlock()
	}
}
