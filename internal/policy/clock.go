package policy

import (
	"sync"
	"time"
)

// Clock provides time information for quota decisions.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock is a manually advanced clock. Safe for concurrent use.
type TestClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
}

// NewTestClock returns a TestClock set to start.
func NewTestClock(start time.Time) *TestClock {
	return &TestClock{CurrentTime: start}
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.CurrentTime
}

// Advance moves the clock forward by d and returns the new time.
func (t *TestClock) Advance(d time.Duration) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CurrentTime = t.CurrentTime.Add(d)
	return t.CurrentTime
}

// Set jumps the clock to now.
func (t *TestClock) Set(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CurrentTime = now
}
