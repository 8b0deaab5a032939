// Package goroutine runs named background jobs with a concurrency cap and
// collects their errors for shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/trafficai/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a
// non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a value recovered from a panicking job.
var ErrPanic = errors.New("goroutine: job panicked")

// Manager runs jobs in goroutines with a configurable concurrency limit.
// Wait closes the manager; later calls to Go are dropped.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	closed bool
	errs   []error
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go starts f under name if the manager is open and below its limit.
// A job whose ctx is already done is not started.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, job dropped", "job", name)
		return false
	}
	if ctx.Err() != nil {
		slog.WarnContext(ctx, "job canceled before start", "job", name, "because", ctx.Err())
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, job dropped", "job", name)
		return false
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()

		if err := g.run(ctx, name, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	})

	return true
}

func (g *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "job", name, "because", rvr, "stack", stacktrace.Summary(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, rvr)
		}
	}()

	return f(ctx)
}

// Wait closes the manager, blocks until every started job returns and
// reports their errors joined.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
