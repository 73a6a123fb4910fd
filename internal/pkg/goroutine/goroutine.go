package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/authgate/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 8

var (
	// ErrClosed is returned by Go once Wait has been called.
	ErrClosed = errors.New("goroutine: manager is closed")

	// ErrLimit is returned by Go when every slot is taken.
	ErrLimit = errors.New("goroutine: concurrency limit reached")
)

// Manager runs named background tasks, such as the terminal input reader,
// under a fixed concurrency limit. Task errors and panics are collected and
// surfaced by Wait.
type Manager struct {
	mu     sync.Mutex
	errs   []error
	wg     sync.WaitGroup
	slots  chan struct{}
	active *atomic.Int64
	closed *atomic.Bool
}

// NewManager creates a Manager that allows at most limit tasks at once.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = DefaultMaxGoroutine
	}

	return &Manager{
		slots:  make(chan struct{}, limit),
		active: atomic.NewInt64(0),
		closed: atomic.NewBool(false),
	}
}

// Go starts f in its own goroutine. The task receives ctx and should return
// when ctx is done.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	if g.closed.Load() {
		slog.WarnContext(ctx, "goroutine manager is closed, task not started", "task", name)
		return ErrClosed
	}

	select {
	case g.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task not started", "task", name, "limit", cap(g.slots))
		return ErrLimit
	}

	g.active.Inc()
	g.wg.Add(1)
	go func() {
		defer func() {
			if rvr := recover(); rvr != nil {
				g.collect(fmt.Errorf("task %s panicked: %v", name, rvr))
				if paths := stacktrace.Internal(1); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic in background task", "task", name, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic in background task", "task", name, "stack", string(debug.Stack()))
				}
			}
			g.active.Dec()
			<-g.slots
			g.wg.Done()
		}()

		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.collect(fmt.Errorf("task %s: %w", name, err))
		}
	}()

	return nil
}

// Active reports how many tasks are currently running.
func (g *Manager) Active() int64 {
	return g.active.Load()
}

// Wait closes the manager and blocks until every task finishes or ctx is
// done. A task blocked on I/O it cannot cancel keeps running after Wait
// returns with ctx's error.
func (g *Manager) Wait(ctx context.Context) error {
	g.closed.Store(true)

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return errors.Join(g.errs...)
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
