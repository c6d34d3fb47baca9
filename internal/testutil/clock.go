package testutil

import "sync"

// ManualClock provides a thread-safe settable wall clock for tests.
//
// Unlike market.SystemClock, ManualClock only moves when told to. This
// lets deadline checks be pinned to exact instants, including the
// inclusive/exclusive boundaries of the participation and dispute windows.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock pinned to the given unix timestamp.
func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the pinned timestamp.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set pins the clock to an absolute timestamp.
func (c *ManualClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}
