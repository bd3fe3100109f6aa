package testutil

import (
	"sync"
	"time"
)

// FakeClock provides a controllable clock for tests.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingClock returns a clock that moves forward by step after every
// reading, so successive timestamps are distinct.
func NewSteppingClock(start time.Time, step time.Duration) *FakeClock {
	return &FakeClock{now: start, step: step}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}
