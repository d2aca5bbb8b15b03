// Package parallel fans independent per-index work out over a bounded
// goroutine pool.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// For runs fn(i) for i in [0,n) on at most GOMAXPROCS goroutines.
// fn must only touch state owned by index i.
func For(n int, fn func(i int)) {
	_ = ForErr(context.Background(), n, func(_ context.Context, i int) error {
		fn(i)
		return nil
	})
}

// ForErr is For with cancellation: the first error cancels ctx for the
// remaining tasks and is returned.
func ForErr(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return fn(ctx, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
