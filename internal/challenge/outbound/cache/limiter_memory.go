package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
)

type memoryBucket struct {
	count     int
	windowEnd time.Time
	last      time.Time
}

// MemoryLimiter is a fixed-window issuance limiter kept in process memory.
type MemoryLimiter struct {
	clock clock.Clocker
	opt   ThrottleOptions

	mu      sync.Mutex
	buckets map[string]memoryBucket
}

// NewMemoryLimiter constructs an in-memory limiter.
func NewMemoryLimiter(clk clock.Clocker, opt ThrottleOptions) *MemoryLimiter {
	return &MemoryLimiter{clock: clk, opt: opt, buckets: make(map[string]memoryBucket)}
}

// Allow records an issuance attempt for identifier if the budget permits it.
func (l *MemoryLimiter) Allow(_ context.Context, identifier string) (entity.Throttle, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identifier]
	if ok && l.opt.Cooldown > 0 {
		if wait := b.last.Add(l.opt.Cooldown).Sub(now); wait > 0 {
			return entity.Throttle{RetryAfter: wait}, nil
		}
	}

	if !ok || !now.Before(b.windowEnd) {
		b.count = 0
		b.windowEnd = now.Add(l.opt.Window)
	}

	if l.opt.windowEnabled() && b.count >= l.opt.MaxPerWindow {
		return entity.Throttle{RetryAfter: b.windowEnd.Sub(now)}, nil
	}

	b.count++
	b.last = now
	l.buckets[identifier] = b

	return entity.Throttle{Allowed: true}, nil
}

// Refund gives back the most recent issuance of identifier and lifts its
// cooldown, for codes that were never delivered.
func (l *MemoryLimiter) Refund(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identifier]
	if !ok {
		return nil
	}

	if b.count > 0 {
		b.count--
	}
	b.last = time.Time{}
	l.buckets[identifier] = b

	return nil
}

// Sweep forgets buckets whose window and cooldown are both over.
func (l *MemoryLimiter) Sweep(_ context.Context) int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, b := range l.buckets {
		if !now.Before(b.windowEnd) && !now.Before(b.last.Add(l.opt.Cooldown)) {
			delete(l.buckets, id)
			removed++
		}
	}

	return removed
}
