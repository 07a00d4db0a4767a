package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many synthesis jobs run at once so a burst of requests
// cannot pile unbounded work onto the engine. Callers block until a slot is
// free or their request context is cancelled; an optional per-job timeout is
// layered on top once the slot is acquired.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func NewPool(size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(size)),
		timeout: timeout,
	}
}

// Do runs fn under a pool slot. The context handed to fn carries the pool's
// timeout when one is configured; fn must respect cancellation for the
// timeout to have teeth.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("cancelled while waiting for synthesis slot: %w", err)
	}
	defer p.sem.Release(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return fn(ctx)
}
