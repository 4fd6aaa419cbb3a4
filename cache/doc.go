// Package cache provides the freshness-aware key/value store behind the
// reader's data layer, together with the key builder used to address it.
//
// # Overview
//
// This package exports two main pieces:
//
//   - Store: a keyed cache of fetched values with per-kind staleness policies
//   - KeyBuilder: builds canonical cache keys from a resource kind and parameters
//
// The store never knows how a value is produced. Callers hand it a plain fetch
// function and a Policy, and the store decides whether that function runs.
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig().WithPolicy("homepage", cache.Policy{
//		FreshWindow: 5 * time.Second,
//		HardExpiry:  time.Minute,
//	}))
//	key := cache.MustBuildKey("homepage", map[string]any{"page": 1})
//	page, err := cache.Get(ctx, store, key, func(ctx context.Context) (Homepage, error) {
//		return api.Homepage(ctx, 1)
//	})
//
// # Freshness
//
// Each entry carries the time of its last successful fetch. Against the
// entry's Policy a value is:
//
//   - Fresh (age < FreshWindow): returned without fetching
//   - Stale (FreshWindow <= age < HardExpiry): returned at once, one background refresh starts
//   - Expired (age >= HardExpiry): never returned, the caller waits for a fetch
//
// # De-duplication
//
// Concurrent requests for the same key share a single fetch, including the
// background refresh triggered by a stale read. Failures are delivered to
// every waiter as the same *FetchError and the entry moves to StateError,
// keeping its last good value available through Peek. The store does not
// retry on its own; the next request for the key fetches again.
//
// # Invalidation
//
// Invalidate and InvalidateByPrefix move entries back to StateEmpty. A fetch
// already running is not cancelled. By default its result is still written
// (last fetch wins); Config.DiscardSuperseded drops it instead.
//
// # Key Format
//
// Keys look like "kind" or "kind::a=1&b=x". Parameters are sorted by name,
// query-escaped, and nil values are omitted, so parameter order and unset
// filters never produce distinct keys. Only primitive values are accepted;
// anything else fails with ErrInvalidKeyParam.
package cache
