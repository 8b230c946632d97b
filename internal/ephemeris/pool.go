package ephemeris

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/propagation"
)

// computeJob is a unit of work for the worker pool.
type computeJob struct {
	index int
	at    time.Time
}

// computeResult is the output of a single fix.
type computeResult struct {
	index int
	fix   Fix
	err   error
}

// WorkerPool manages a fixed number of goroutines that evaluate fixes in
// parallel against one shared propagator.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
// A non-positive count uses runtime.NumCPU().
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// ComputeBatch evaluates a fix for every instant in times. Results are in
// input order. The first error cancels the remaining work and is returned;
// a cancelled ctx returns ctx.Err().
func (wp *WorkerPool) ComputeBatch(ctx context.Context, p *propagation.SGP4Propagator, eops eop.Provider, times []time.Time) ([]Fix, error) {
	if len(times) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan computeJob, wp.workers*2)
	results := make(chan computeResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				fix, err := Compute(p, eops, job.at)
				select {
				case results <- computeResult{index: job.index, fix: fix, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, at := range times {
			select {
			case jobs <- computeJob{index: i, at: at}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	fixes := make([]Fix, len(times))
	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				wp.logger.Warn("ephemeris fix failed",
					"index", result.index,
					"time", times[result.index].UTC().Format(time.RFC3339Nano),
					"error", result.err,
				)
				cancel()
			}
			continue
		}
		fixes[result.index] = result.fix
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		// Cancelled by the caller before every job ran.
		return nil, err
	}
	return fixes, nil
}
