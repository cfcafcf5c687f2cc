package testing

import (
	"sync"
	"time"
)

// ManualClock provides a controllable clock for testing order validity windows.
type ManualClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewManualClock creates a new ManualClock set to a default time.
// The default is November 14, 2023, 22:13:20 UTC (unix 1700000000).
func NewManualClock() *ManualClock {
	return &ManualClock{
		current: time.Unix(1700000000, 0).UTC(),
	}
}

// NewManualClockAt creates a new ManualClock set to the specified time.
func NewManualClockAt(t time.Time) *ManualClock {
	return &ManualClock{
		current: t,
	}
}

// Now returns the current time on the clock.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Unix returns the current time as a block timestamp.
func (c *ManualClock) Unix() uint64 {
	return uint64(c.Now().Unix())
}

// Advance moves the clock forward by the specified duration.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set sets the clock to a specific time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
