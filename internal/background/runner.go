// Package background runs detached tasks: work a request starts but does not wait for,
// such as cache writes and best-effort deletes. Task errors go to the runner's logger.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner spawns detached tasks and tracks them so shutdown can drain in-flight work.
type Runner interface {
	// Go runs fn in the background. The task context survives the caller's
	// cancellation and is bounded by the runner's task timeout.
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
	// Shutdown stops accepting tasks and waits for running ones until ctx is done.
	Shutdown(ctx context.Context) error
}

// TaskRunner is the goroutine-backed Runner.
type TaskRunner struct {
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
}

// NewTaskRunner creates a runner whose tasks time out after timeout.
func NewTaskRunner(logger *slog.Logger, timeout time.Duration) *TaskRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TaskRunner{logger: logger, timeout: timeout}
}

func (r *TaskRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("background task dropped, runner is shut down", slog.String("task", name))
		return
	}
	r.running.Add(1)
	r.mu.Unlock()

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	go func() {
		defer r.running.Done()
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("background task panicked",
					slog.String("task", name),
					slog.Any("panic", p),
				)
			}
		}()

		if err := fn(taskCtx); err != nil {
			r.logger.Error("background task failed",
				slog.String("task", name),
				slog.Any("error", err),
			)
		}
	}()
}

func (r *TaskRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline runs tasks synchronously on the caller's goroutine. Used by CLI commands and
// tests that need deterministic ordering.
type Inline struct {
	Logger *slog.Logger
}

func (i Inline) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := fn(context.WithoutCancel(ctx)); err != nil && i.Logger != nil {
		i.Logger.Error("background task failed", slog.String("task", name), slog.Any("error", err))
	}
}

func (Inline) Shutdown(context.Context) error { return nil }
