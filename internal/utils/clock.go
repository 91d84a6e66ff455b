package utils

import (
	"sync"
	"time"
)

// Clock supplies "now". Everything that classifies rentals against the current
// day takes a Clock so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// SystemClock reads the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

// FixedClock is a settable clock for tests and for replaying jobs as of a date.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
