package assignment

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Clock supplies timestamps for createdAt, updatedAt and history entries.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// RandomSource picks the tie-break index among next-user candidates.
// Implementations must be safe for concurrent use.
type RandomSource interface {
	// IntN returns a value in [0, n). n is always > 0.
	IntN(n int) int
}

// GlobalRandom uses the goroutine-safe top-level math/rand/v2 generator.
type GlobalRandom struct{}

func (GlobalRandom) IntN(n int) int { return rand.IntN(n) }

// FirstCandidate always picks the first candidate, making selection follow
// user creation order.
type FirstCandidate struct{}

func (FirstCandidate) IntN(int) int { return 0 }
