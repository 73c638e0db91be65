package engine

import (
	"sync"
	"time"

	"supply_go/internal/domain"
)

// Clock supplies the current time to the sequencer.
type Clock interface {
	Now() domain.Timestamp
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() domain.Timestamp {
	return domain.TimestampOf(time.Now())
}

// ManualClock is a settable clock for tests and replays.
type ManualClock struct {
	mu  sync.Mutex
	now domain.Timestamp
}

// NewManualClock returns a clock fixed at now.
func NewManualClock(now domain.Timestamp) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() domain.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to ts.
func (c *ManualClock) Set(ts domain.Timestamp) {
	c.mu.Lock()
	c.now = ts
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += domain.Timestamp(d.Milliseconds())
	c.mu.Unlock()
}
