// Package async provides the two concurrency shapes the page lifecycle
// needs: a Future for a value that is requested early and awaited later,
// and a Group for fire-and-forget work that must still be waited for
// before the process exits.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Future is the eventual result of a computation started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn on a new goroutine and returns its Future.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("panic: %v", r)
			}
		}()
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns a Future that is already complete with v.
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Rejected returns a Future that is already complete with err.
func Rejected[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Await blocks until the Future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed when the Future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Group runs detached background tasks. A task's failure is logged and
// never returned; Wait only reports whether all tasks finished in time.
type Group struct {
	wg     sync.WaitGroup
	logger *slog.Logger

	mu       sync.Mutex
	started  int
	failures int
}

// NewGroup creates a Group. A nil logger uses slog.Default().
func NewGroup(logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{logger: logger}
}

// Detach runs fn in the background. fn receives a context that keeps ctx's
// values but is not cancelled with it.
func (g *Group) Detach(ctx context.Context, name string, fn func(ctx context.Context) error) {
	g.mu.Lock()
	g.started++
	g.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	g.wg.Go(func() {
		if err := g.run(ctx, fn); err != nil {
			g.mu.Lock()
			g.failures++
			g.mu.Unlock()
			g.logger.Warn("background task failed", "task", name, "error", err)
			return
		}
		g.logger.Debug("background task finished", "task", name)
	})
}

// After runs fn in the background once delay has elapsed.
func (g *Group) After(ctx context.Context, name string, delay time.Duration, fn func(ctx context.Context) error) {
	g.Detach(ctx, name, func(ctx context.Context) error {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			<-t.C
		}
		return fn(ctx)
	})
}

func (g *Group) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every detached task finished or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns how many tasks were started and how many failed so far.
func (g *Group) Stats() (started, failed int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started, g.failures
}
