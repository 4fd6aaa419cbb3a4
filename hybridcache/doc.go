// Package hybridcache specializes a cache.Store for one hot resource, pages
// of the homepage by default, and mirrors every successful fetch into
// session-scoped storage.
//
// The memory tier is the store itself. The session tier is only read when the
// memory entry is empty, which is the state right after a restart or a
// store Reset, and only written after the memory tier has been updated. A
// session record younger than Options.SessionTTL is seeded back into the
// store with its original fetch time and returned without fetching.
//
// Session failures never reach the caller: a failed read is a miss for that
// tier and a failed write is dropped. Both are logged at debug level.
//
//	session, _ := hybridcache.NewMemorySession(hybridcache.DefaultSessionConfig())
//	home, _ := hybridcache.New(store, session, api.Homepage, hybridcache.Options{})
//	defer home.Close()
//	page, err := home.Get(ctx, 1)
package hybridcache
