// Package pool is the worker pool sources fan decode work out on.
package pool

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many tasks run at once. A Pool holds no goroutines between calls
// to Run so it can be shared freely.
type Pool struct {
	threads int
}

// New returns a pool running at most threads tasks at once.
// A non-positive value means runtime.GOMAXPROCS(0).
func New(threads int) *Pool {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return &Pool{threads: threads}
}

var (
	globalOnce sync.Once
	global     *Pool
)

// Global returns the process wide pool, sized by GOMAXPROCS on first use.
func Global() *Pool {
	globalOnce.Do(func() {
		global = New(0)
	})
	return global
}

// CurrentNumThreads reports the pool's concurrency limit.
func (p *Pool) CurrentNumThreads() int {
	return p.threads
}

// Run calls fn for every i in [0, n) with at most CurrentNumThreads calls in flight.
// The first error cancels the context handed to the remaining calls and is returned
// once every started call has finished.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return fn(ctx, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.threads)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
