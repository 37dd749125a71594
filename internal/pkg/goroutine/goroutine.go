// Package goroutine provides a bounded, panic-recovering runner for
// the long-lived background work of the process: consumers, the
// scheduled sweep, and anything else that must stop with the server.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/verimail/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine scales the fallback concurrency limit per CPU
// when NewManager receives a non-positive value.
const DefaultMaxGoroutine int = 100

// Manager runs tasks concurrently up to a fixed limit, recovers their
// panics, and collects returned errors until Wait.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu   sync.Mutex
	errs []error

	stateMu sync.RWMutex
	closed  bool
}

// NewManager builds a Manager allowing at most limit concurrent tasks.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, limit)}
}

// Go schedules f on a new goroutine. The task is dropped with a
// warning when the manager is closed or at its limit; it never blocks
// the caller.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	// The read lock is held until the task is registered so Wait
	// cannot observe an empty WaitGroup while a task is being added.
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, failed to start new goroutine")
		return
	}

	g.wg.Go(func() {
		defer func() {
			<-g.sema
			g.recovered(ctx)
		}()

		select {
		case <-ctx.Done():
			slog.WarnContext(ctx, "goroutine canceled", "because", ctx.Err())
		default:
			if err := f(ctx); err != nil {
				g.mu.Lock()
				g.errs = append(g.errs, err)
				g.mu.Unlock()
			}
		}
	})
}

func (g *Manager) recovered(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", frames)
		return
	}
	slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
}

// Wait closes the manager to new tasks, blocks until running tasks
// finish, and returns their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
