package testsupport

import (
	"context"
	"sync"
	"sync/atomic"
)

// CountingFetcher wraps a fetch function and counts its invocations.
type CountingFetcher[T any] struct {
	calls atomic.Int64
	fn    func(call int) (T, error)
}

// NewCountingFetcher creates a fetcher whose result is computed by fn from
// the 1-based call number.
func NewCountingFetcher[T any](fn func(call int) (T, error)) *CountingFetcher[T] {
	return &CountingFetcher[T]{fn: fn}
}

// Fetch matches cache.FetchFn.
func (f *CountingFetcher[T]) Fetch(ctx context.Context) (T, error) {
	n := f.calls.Add(1)
	return f.fn(int(n))
}

// Calls returns how many times Fetch ran.
func (f *CountingFetcher[T]) Calls() int {
	return int(f.calls.Load())
}

type blockingResult[T any] struct {
	value T
	err   error
}

// BlockingFetcher blocks every Fetch until the test releases it, which makes
// in-flight windows explicit.
type BlockingFetcher[T any] struct {
	calls   atomic.Int64
	started chan struct{}
	release chan blockingResult[T]
	once    sync.Once
}

// NewBlockingFetcher creates a BlockingFetcher.
func NewBlockingFetcher[T any]() *BlockingFetcher[T] {
	return &BlockingFetcher[T]{
		started: make(chan struct{}, 64),
		release: make(chan blockingResult[T], 64),
	}
}

// Fetch matches cache.FetchFn. It ignores ctx because fetches run detached.
func (f *BlockingFetcher[T]) Fetch(ctx context.Context) (T, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	r := <-f.release
	return r.value, r.err
}

// Started receives once per Fetch call, when the call begins.
func (f *BlockingFetcher[T]) Started() <-chan struct{} {
	return f.started
}

// Release lets one blocked (or future) Fetch call return value and err.
func (f *BlockingFetcher[T]) Release(value T, err error) {
	f.release <- blockingResult[T]{value: value, err: err}
}

// Calls returns how many times Fetch ran.
func (f *BlockingFetcher[T]) Calls() int {
	return int(f.calls.Load())
}
