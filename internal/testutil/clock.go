package testutil

import (
	"sync"
	"time"

	"github.com/roach88/leapcal/internal/calendar"
)

// FixedClock is a settable wall clock for tests that depend on "today",
// such as table expiry.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock stopped at midnight UTC of day.
func NewFixedClock(day calendar.Day) *FixedClock {
	return &FixedClock{now: day.Time()}
}

// Now returns the clock's time. It has the signature of time.Now so it can
// be passed wherever a clock function is expected.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the day the clock is on.
func (c *FixedClock) Today() calendar.Day {
	return calendar.FromTime(c.Now())
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to midnight UTC of day.
func (c *FixedClock) Set(day calendar.Day) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = day.Time()
}
