package clock

import (
	"sync"
	"time"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Frozen is a manually driven clock. It only moves when Advance or Set is called.
type Frozen struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFrozen returns a Frozen clock pinned at t.
func NewFrozen(t time.Time) *Frozen {
	return &Frozen{now: t}
}

// Now returns the pinned time.
func (f *Frozen) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.now
}

// Advance moves the clock forward by d.
func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set pins the clock at t.
func (f *Frozen) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
