// Package worker provides the bounded execution context that blocking
// metadata probes and downloads run on.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Do after Close
var ErrClosed = errors.New("worker pool is closed")

// Pool runs jobs on at most size goroutines
type Pool struct {
	group  errgroup.Group
	slots  *semaphore.Weighted
	size   int
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool with size slots; size below 1 is raised to 1
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, slots: semaphore.NewWeighted(int64(size))}
}

// Size returns the number of slots
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn on the pool and waits for its result. While every slot is
// busy Do waits for one, and gives up with ctx.Err() when ctx ends first.
// Once started, fn is always waited for; it receives ctx and is expected to
// return when ctx ends.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.isClosed() {
		return ErrClosed
	}
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.slots.Release(1)
		return ErrClosed
	}
	p.group.Go(func() error {
		defer p.slots.Release(1)
		done <- run(ctx, fn)
		// Job errors belong to the caller, not the group
		return nil
	})
	p.mu.RUnlock()

	return <-done
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close stops accepting jobs and waits for running ones
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	_ = p.group.Wait()
}

func run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return fn(ctx)
}
