package testutil

import (
	"sync"
	"time"
)

// DeterministicClock numbers diagnostic events and reports a time that
// only moves when the test advances it. It satisfies diag.Sequencer, and
// its Now method can be passed to diag.WithNow.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
	now time.Time
}

// Epoch is the time a new DeterministicClock starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewDeterministicClock creates a clock at sequence 0 and Epoch.
// The first call to Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{now: Epoch}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Now returns the clock's time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock's time forward by d.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Reset returns the clock to sequence 0 and Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
	c.now = Epoch
}
