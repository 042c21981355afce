package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("dispatcher closed")

// Dispatcher runs background jobs that must outlive the request that
// started them, and lets shutdown wait for them.
type Dispatcher struct {
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Go starts fn with a context detached from parent's cancellation but
// bounded by the dispatcher timeout. Errors and panics are logged.
func (d *Dispatcher) Go(parent context.Context, name string, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("job rejected after shutdown", slog.String("job", name))
		return ErrClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.run(ctx, fn); err != nil {
			d.logger.Error("background job failed", slog.String("job", name), slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (d *Dispatcher) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Drain stops accepting jobs and waits for running ones or ctx.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
