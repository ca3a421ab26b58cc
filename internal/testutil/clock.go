// Package testutil provides deterministic fixtures for engine tests.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe deterministic clock for tests. Each call to
// Now advances by a fixed step, so timestamps are distinct but repeatable.
//
// It implements engine.Clock.
type FixedClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// Epoch is the base instant used by NewFixedClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFixedClock creates a clock starting at Epoch advancing one second per
// Now call.
func NewFixedClock() *FixedClock {
	return &FixedClock{current: Epoch, step: time.Second}
}

// NewFixedClockAt creates a clock with an explicit start and step.
func NewFixedClockAt(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{current: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Peek returns the instant the next Now call will return, without
// advancing.
func (c *FixedClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Reset rewinds the clock to the given instant for test reuse.
func (c *FixedClock) Reset(to time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = to
}
