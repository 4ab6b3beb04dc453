package mist

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/LynnColeArt/mist/backend"
)

// launchInternal implements the core kernel execution logic
func (ctx *Context) launchInternal(
	kernelFunc func(*Campaign, ...interface{}),
	grid Dim3,
	stream *Stream,
	args ...interface{},
) (*Campaign, error) {
	if kind := ctx.backend.Kind(); kind != backend.KindHost {
		return nil, NewNotImplementedError("Launch",
			fmt.Sprintf("%s kernels run on an external runtime; translate them with the backend package", kind))
	}

	ctx.mu.Lock()
	destroyed := ctx.destroyed
	ctx.mu.Unlock()
	if destroyed {
		return nil, ErrContextDestroyed
	}

	opts := []CampaignOption{WithCampaignLogger(ctx.logger())}
	if ctx.strict {
		opts = append(opts, WithStrictOverflow())
	}
	campaign, err := BeginCampaign(grid, opts...)
	if err != nil {
		return nil, err
	}

	total := grid.Size()
	numWorkers := uint64(ctx.workers)
	if total < numWorkers {
		numWorkers = total
	}

	// Contiguous chunks keep neighbouring ids on one worker; which worker
	// ends up with which coordinate is still decided by the shared counter.
	chunk := (total + numWorkers - 1) / numWorkers

	ctx.logger().Debug("mist: launch",
		"grid", grid.String(),
		"workers", numWorkers,
		"stream", stream.id)

	stream.Submit(func() error {
		var (
			wg       sync.WaitGroup
			errOnce  sync.Once
			firstErr error
		)

		for start := uint64(0); start < total; start += chunk {
			end := start + chunk
			if end > total {
				end = total
			}
			n := end - start

			wg.Add(1)
			ctx.pool.Submit(func() {
				defer wg.Done()
				for i := uint64(0); i < n; i++ {
					if err := invoke(kernelFunc, campaign, args); err != nil {
						errOnce.Do(func() { firstErr = err })
						return
					}
				}
			})
		}

		wg.Wait()
		if firstErr != nil {
			ctx.logger().Error("mist: kernel failed", "grid", grid.String(), "err", firstErr)
		}
		return firstErr
	})

	return campaign, nil
}

// invoke runs one kernel invocation, turning a panic into an execution
// error.
func invoke(kernelFunc func(*Campaign, ...interface{}), c *Campaign, args []interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = NewExecutionError("Launch", "kernel panicked", cause)
		}
	}()
	kernelFunc(c, args...)
	return nil
}

// WorkerPool manages a pool of worker goroutines for kernel execution
type WorkerPool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		workers: workers,
		tasks:   make(chan func(), workers*PoolQueueFactor),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit adds a task to the pool
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	close(wp.tasks)
	wp.wg.Wait()
}

// Helper functions for common patterns

// ForEach calls fn once for every index in [0, n) on the default context
// and waits for completion.
func ForEach(n int, fn func(idx int)) error {
	return defaultContext.ForEach(n, fn)
}

// ForEach calls fn once for every index in [0, n) and waits for the
// default stream.
func (ctx *Context) ForEach(n int, fn func(idx int)) error {
	if n <= 0 {
		return nil
	}
	kernel := KernelFunc(func(c *Campaign, _ ...interface{}) {
		fn(int(c.GlobalID().X))
	})
	_, err := ctx.Run(kernel, Grid1D(n))
	return err
}

// Map applies fn elementwise from in to out.
func Map(in, out []float32, fn func(float32) float32) error {
	if len(out) < len(in) {
		return NewConfigurationError("Map",
			fmt.Sprintf("output length %d shorter than input length %d", len(out), len(in)), nil)
	}
	return ForEach(len(in), func(i int) {
		out[i] = fn(in[i])
	})
}
