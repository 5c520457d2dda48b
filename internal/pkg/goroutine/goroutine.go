// Package goroutine runs the background jobs of the service, such as the
// session reaper, with a concurrency cap and panic recovery.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shandysiswandi/cardnote/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is used per CPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a value recovered from a job.
var ErrPanic = errors.New("goroutine: panic recovered")

// Manager runs jobs with a concurrency cap. Errors returned by jobs are
// collected and handed back by Wait.
type Manager struct {
	wg     sync.WaitGroup
	sema   chan struct{}
	active *atomic.Int64

	mu     sync.Mutex
	errs   []error
	closed bool
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema:   make(chan struct{}, maxGoroutine),
		active: atomic.NewInt64(0),
	}
}

// Active is the number of jobs running right now.
func (g *Manager) Active() int64 {
	return g.active.Load()
}

// Go starts f unless the manager is closed or at capacity; both cases are
// logged and f is dropped.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, failed to start new goroutine")
		return
	}

	g.active.Inc()
	g.wg.Go(func() {
		defer func() {
			g.active.Dec()
			<-g.sema
		}()

		if ctx.Err() != nil {
			slog.WarnContext(ctx, "goroutine canceled", "because", ctx.Err())
			return
		}
		if err := run(ctx, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	})
}

// run calls f and turns a panic into ErrPanic.
func run(ctx context.Context, f func(ctx context.Context) error) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("%w: %v", ErrPanic, rvr)
	}()

	return f(ctx)
}

// Wait closes the manager to new jobs, blocks until running ones finish and
// returns their joined errors.
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

// Every runs f on each tick of interval until ctx is done. Errors from f are
// logged and do not stop the loop. A non-positive interval schedules nothing.
func (g *Manager) Every(ctx context.Context, name string, interval time.Duration, f func(ctx context.Context) error) {
	if interval <= 0 {
		slog.WarnContext(ctx, "periodic job disabled, interval is not positive", "job", name)
		return
	}

	g.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := run(ctx, f); err != nil {
					slog.ErrorContext(ctx, "periodic job failed", "job", name, "error", err)
				}
			}
		}
	})
}
