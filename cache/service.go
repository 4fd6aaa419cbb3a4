package cache

import (
	"context"
	"time"
)

// FetchFn is the function signature the Store expects when fetching from the
// source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

func (fn FetchFn[T]) erase() func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// GetOrFetch is a type-safe wrapper around Store.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, store *Store, key string, fetch FetchFn[T], policy Policy) (T, error) {
	var erased func(context.Context) (any, error)
	if fetch != nil {
		erased = fetch.erase()
	}
	result, err := store.GetOrFetch(ctx, key, erased, policy)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](result)
}

// Get is GetOrFetch with the policy registered for the key's kind.
func Get[T any](ctx context.Context, store *Store, key string, fetch FetchFn[T]) (T, error) {
	return GetOrFetch(ctx, store, key, fetch, store.PolicyFor(key))
}

// Prefetch is a type-safe wrapper around Store.Prefetch.
func Prefetch[T any](ctx context.Context, store *Store, key string, fetch FetchFn[T], policy Policy) bool {
	if fetch == nil {
		return false
	}
	return store.Prefetch(ctx, key, fetch.erase(), policy)
}

// Peek returns the last successfully fetched value for key, if any, along
// with when it was fetched. It works in every state, including ERROR.
func Peek[T any](store *Store, key string) (T, time.Time, bool) {
	var zero T
	e, ok := store.Peek(key)
	if !ok || !e.HasValue() {
		return zero, time.Time{}, false
	}
	v, err := cast[T](e.Value)
	if err != nil {
		return zero, time.Time{}, false
	}
	return v, e.FetchedAt, true
}

func cast[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}
