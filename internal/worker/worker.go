// Package worker bounds how many CPU-heavy jobs (report rendering) run at once.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Do once the pool has been stopped.
var ErrStopped = errors.New("worker pool stopped")

// task is a queued unit of work.
type task func()

// Pool defines a simple worker pool.
type Pool interface {
	// Do runs fn on a worker and waits for its result. It gives up when
	// ctx is done, either while queued or while fn runs.
	Do(ctx context.Context, fn func() error) error
	Stop()
}

// NewPool creates a pool with n workers. n<=0 defaults to 1.
func NewPool(n int) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan task), done: make(chan struct{})}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if job != nil {
					job()
				}
			}
		}()
	}
	return p
}

type pool struct {
	jobs chan task
	done chan struct{}
	once sync.Once
	mu   sync.RWMutex
	wg   sync.WaitGroup
}

func (p *pool) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	job := func() {
		if ctx.Err() != nil {
			result <- ctx.Err()
			return
		}
		result <- fn()
	}

	p.mu.RLock()
	select {
	case <-p.done:
		p.mu.RUnlock()
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- job:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) Stop() {
	p.once.Do(func() {
		close(p.done)
		p.mu.Lock()
		close(p.jobs)
		p.mu.Unlock()
		p.wg.Wait()
	})
}
