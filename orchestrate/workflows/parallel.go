// Package workflows provides reusable concurrency patterns for orchestration.
package workflows

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/assistant/observability"
	"github.com/tailored-agentic-units/assistant/orchestrate/config"
)

const parallelSource = "workflows.ProcessParallel"

// TaskProcessor handles one item independently of the others.
type TaskProcessor[TItem, TResult any] func(ctx context.Context, item TItem) (TResult, error)

// ProcessParallel runs processor over items on a bounded pool and waits for
// every started task to settle. Results come back in input order.
//
// Under fail-fast the first failure cancels the shared context and items not
// yet started are skipped; the returned error is a *ParallelError. Otherwise
// every item runs and an error is returned only when all of them failed. A
// panicking processor counts as a failure of its item.
//
// The observer is resolved from cfg.Observer.
func ProcessParallel[TItem, TResult any](
	ctx context.Context,
	cfg config.ParallelConfig,
	items []TItem,
	processor TaskProcessor[TItem, TResult],
	progress ProgressFunc[TResult],
) (ParallelResult[TItem, TResult], error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return ParallelResult[TItem, TResult]{}, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return ProcessParallelWithObserver(ctx, cfg, observer, items, processor, progress)
}

// ProcessParallelWithObserver is ProcessParallel with an explicit observer.
func ProcessParallelWithObserver[TItem, TResult any](
	ctx context.Context,
	cfg config.ParallelConfig,
	observer observability.Observer,
	items []TItem,
	processor TaskProcessor[TItem, TResult],
	progress ProgressFunc[TResult],
) (ParallelResult[TItem, TResult], error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	failFast := cfg.FailFast()
	workers := calculateWorkerCount(cfg.MaxWorkers, cfg.WorkerCap, len(items))
	start := time.Now()

	observability.Emit(ctx, observer, EventParallelStart, observability.LevelInfo, parallelSource, map[string]any{
		"item_count":   len(items),
		"worker_count": workers,
		"fail_fast":    failFast,
	})

	var (
		group  *errgroup.Group
		runCtx context.Context
	)
	if failFast {
		group, runCtx = errgroup.WithContext(ctx)
	} else {
		group, runCtx = &errgroup.Group{}, ctx
	}
	group.SetLimit(max(workers, 1))

	results := make([]TResult, len(items))
	errs := make([]error, len(items))
	ran := make([]bool, len(items))
	var completed atomic.Int32

	for i, item := range items {
		group.Go(func() error {
			if failFast && runCtx.Err() != nil {
				return nil
			}
			ran[i] = true

			observability.Emit(runCtx, observer, EventWorkerStart, observability.LevelVerbose, parallelSource, map[string]any{
				"item_index":  i,
				"total_items": len(items),
			})

			result, err := runTask(runCtx, processor, item)

			observability.Emit(runCtx, observer, EventWorkerComplete, observability.LevelVerbose, parallelSource, map[string]any{
				"item_index":  i,
				"total_items": len(items),
				"error":       err != nil,
			})

			if err != nil {
				errs[i] = err
				if failFast {
					return err
				}
				return nil
			}

			results[i] = result
			if progress != nil {
				progress(int(completed.Add(1)), len(items), result)
			}
			return nil
		})
	}
	_ = group.Wait()

	out := ParallelResult[TItem, TResult]{
		Results: make([]TResult, 0, len(items)),
		Errors:  []TaskError[TItem]{},
	}
	for i := range items {
		if !ran[i] {
			continue
		}
		if errs[i] != nil {
			out.Errors = append(out.Errors, TaskError[TItem]{Index: i, Item: items[i], Err: errs[i]})
			continue
		}
		out.Results = append(out.Results, results[i])
	}

	var retErr error
	switch {
	case ctx.Err() != nil:
		retErr = fmt.Errorf("parallel execution cancelled: %w", ctx.Err())
	case len(out.Errors) > 0 && (failFast || len(out.Results) == 0):
		retErr = &ParallelError[TItem]{Errors: out.Errors}
	}

	observability.Emit(ctx, observer, EventParallelComplete, observability.LevelInfo, parallelSource, map[string]any{
		"items_processed": len(out.Results),
		"items_failed":    len(out.Errors),
		"error":           retErr != nil,
		"duration":        time.Since(start),
	})

	return out, retErr
}

func runTask[TItem, TResult any](ctx context.Context, processor TaskProcessor[TItem, TResult], item TItem) (result TResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return processor(ctx, item)
}

// calculateWorkerCount returns maxWorkers when set, otherwise
// min(NumCPU*2, workerCap, itemCount) with a floor of one.
func calculateWorkerCount(maxWorkers, workerCap, itemCount int) int {
	if maxWorkers > 0 {
		return maxWorkers
	}

	workers := runtime.NumCPU() * 2
	if workerCap > 0 {
		workers = min(workers, workerCap)
	}
	workers = min(workers, itemCount)

	if workers <= 0 {
		workers = 1
	}
	return workers
}
