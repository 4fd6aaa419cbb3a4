// Package prefetch decides when to warm a route speculatively. It never
// fetches anything itself: every prefetch is delegated to a Loader, which in
// turn goes through the cache store's in-flight slot.
//
// A Scheduler lives as long as one screen of the reader. Each target path is
// prefetched at most once per Scheduler no matter how many triggers ask for
// it, and every trigger firing first asks NetworkInfo whether speculative
// work is allowed at all.
package prefetch
