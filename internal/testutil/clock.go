package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a settable wall clock for tests, reporting time in
// Unix microseconds.
//
// By default the clock stands still between calls. SetStep makes every
// NowMicros call advance the clock afterwards, so successive writes in a test
// get strictly increasing timestamps without explicit Advance calls.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	now   int64
	step  int64
}

// NewDeterministicClock creates a clock reading start.
func NewDeterministicClock(start time.Time) *DeterministicClock {
	us := start.UnixMicro()
	return &DeterministicClock{start: us, now: us}
}

// NowMicros returns the current time and then advances by the step.
func (c *DeterministicClock) NowMicros() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now += c.step
	return now
}

// Current returns the current time without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *DeterministicClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d.Microseconds()
}

// Set moves the clock to t.
func (c *DeterministicClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UnixMicro()
}

// SetStep sets how far each NowMicros call advances the clock.
func (c *DeterministicClock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d.Microseconds()
}

// Reset returns the clock to its start time. The step is kept.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}

// Epoch is a fixed instant tests can use as "now".
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
