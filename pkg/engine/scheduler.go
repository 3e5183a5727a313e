package engine

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"sync"
)

// TrialFunc executes the trial at index. It must be safe for concurrent use.
type TrialFunc func(ctx context.Context, index int) error

// TrialScheduler runs independent trials on a bounded worker pool.
type TrialScheduler struct {
	maxParallel int
}

// NewTrialScheduler creates a scheduler. A non-positive maxParallel uses the
// number of CPUs.
func NewTrialScheduler(maxParallel int) *TrialScheduler {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	return &TrialScheduler{maxParallel: maxParallel}
}

// MaxParallel returns the worker limit.
func (s *TrialScheduler) MaxParallel() int {
	return s.maxParallel
}

// Run executes fn for every index in [0, count). The first failing trial
// cancels the remaining ones and its error is returned.
func (s *TrialScheduler) Run(ctx context.Context, count int, fn TrialFunc) error {
	if count <= 0 {
		return nil
	}
	indices := func(yield func(int) bool) {
		for i := 0; i < count; i++ {
			if !yield(i) {
				return
			}
		}
	}
	return RunSeq(ctx, s, indices, func(ctx context.Context, index, _ int) error {
		return fn(ctx, index)
	})
}

type trial[T any] struct {
	index int
	item  T
}

// RunSeq executes fn for every item of seq on the worker pool of s. Items
// are pulled from seq only as workers become free, and pulling stops as soon
// as ctx is cancelled or a trial fails. index counts items in seq order.
func RunSeq[T any](ctx context.Context, s *TrialScheduler, seq iter.Seq[T], fn func(ctx context.Context, index int, item T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	work := make(chan trial[T])
	go func() {
		defer close(work)
		index := 0
		for item := range seq {
			select {
			case work <- trial[T]{index: index, item: item}:
			case <-ctx.Done():
				return
			}
			index++
		}
	}()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 0; i < s.maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				if ctx.Err() != nil {
					return
				}
				if err := fn(ctx, t.index, t.item); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("trial %d failed: %w", t.index, err)
					}
					mu.Unlock()
					cancel()
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
