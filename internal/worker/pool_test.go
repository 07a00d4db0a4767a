package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2, 0)

	var running, peak int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Do(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected pool error: %v", err)
			}
		}()
	}

	wg.Wait()

	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("expected at most 2 concurrent jobs, observed %d", p)
	}
}

func TestPoolTimeout(t *testing.T) {
	pool := NewPool(1, 10*time.Millisecond)

	err := pool.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPoolAcquireRespectsCancellation(t *testing.T) {
	pool := NewPool(1, 0)

	// Occupy the only slot
	release := make(chan struct{})
	go pool.Do(context.Background(), func(ctx context.Context) error {
		<-release
		return nil
	})
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Do(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled while waiting, got %v", err)
	}

	close(release)
}

func TestPoolNoTimeoutKeepsCallerContext(t *testing.T) {
	pool := NewPool(1, 0)

	err := pool.Do(context.Background(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
