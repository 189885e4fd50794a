// Package algo has the numerical routines of the pipeline: scaling, principal
// components, clustering and cluster quality metrics.
package algo

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// chunk is a half-open row range handed to a worker.
type chunk struct{ lo, hi int }

// chunkSize keeps per-chunk work large enough to amortize channel traffic.
const chunkSize = 256

// forEachChunk splits [0, n) into chunks and runs fn on them with a fixed
// worker pool. fn must only write to state owned by its own rows.
func forEachChunk(workers, n int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	if workers <= 1 || n <= chunkSize {
		fn(0, n)
		return
	}

	chunkCh := make(chan chunk, n/chunkSize+1)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for c := range chunkCh {
				fn(c.lo, c.hi)
			}
		})
	}
	for lo := 0; lo < n; lo += chunkSize {
		chunkCh <- chunk{lo: lo, hi: min(lo+chunkSize, n)}
	}
	close(chunkCh)
	wg.Wait()
}

// runIndexed runs fn for every index in [0, n) with at most workers in flight.
// Results must be written to per-index slots. The first error cancels the rest.
func runIndexed(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
