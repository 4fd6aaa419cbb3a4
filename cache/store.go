package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-freshcache/pkg/clock"
	"github.com/goliatone/go-freshcache/pkg/signals"
)

// entry is the mutable record behind an Entry snapshot. Every field is
// guarded by mu; a reader never observes a half-applied update.
type entry struct {
	mu        sync.Mutex
	key       string
	flightKey string
	value     any
	fetchedAt time.Time
	state     State
	err       error
	inFlight  bool
	gen       uint64
}

// servable reports whether the entry holds a value GetOrFetch may return
// without waiting. ERROR entries keep their value for Peek only.
func (e *entry) servable() bool {
	return !e.fetchedAt.IsZero() && (e.state == StateReady || e.state == StateLoading)
}

func (e *entry) snapshot() Entry {
	return Entry{
		Key:        e.key,
		Value:      e.value,
		FetchedAt:  e.fetchedAt,
		State:      e.state,
		Err:        e.err,
		InFlight:   e.inFlight,
		Generation: e.gen,
	}
}

// Store is a keyed cache of fetched values with per-kind staleness policies,
// request de-duplication and stale-while-revalidate refreshes.
//
// At most one fetch per key is in flight at any instant: the in-flight flag
// and the shared singleflight call are created under the entry lock.
type Store struct {
	cfg     Config
	clock   clock.Clock
	logger  *slog.Logger
	tracer  trace.Tracer
	entries *xsync.MapOf[string, *entry]
	flights singleflight.Group
	events  *signals.Bus[Event]
	bg      sync.WaitGroup
	serial  atomic.Uint64
}

// NewStore validates cfg and creates an empty store.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policies == nil {
		cfg.Policies = map[string]Policy{}
	}

	s := &Store{
		cfg:     cfg,
		clock:   clock.Real(),
		logger:  discardLogger(),
		tracer:  defaultTracer(),
		entries: xsync.NewMapOf[string, *entry](),
		events:  signals.NewBus[Event](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Events exposes the store's event channel. Listeners run synchronously on
// the goroutine that committed the change and must not block.
func (s *Store) Events() *signals.Bus[Event] {
	return s.events
}

// Clock returns the time source of the store.
func (s *Store) Clock() clock.Clock {
	return s.clock
}

// PolicyFor returns the policy registered for the key's kind, or the default.
func (s *Store) PolicyFor(key string) Policy {
	if p, ok := s.cfg.Policies[KindOf(key)]; ok {
		return p
	}
	return s.cfg.DefaultPolicy
}

// Get is GetOrFetch with the policy registered for the key's kind.
func (s *Store) Get(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	return s.GetOrFetch(ctx, key, fetch, s.PolicyFor(key))
}

// GetOrFetch returns the value for key.
//
// A fresh value is returned without fetching. A stale value (older than
// FreshWindow, younger than HardExpiry) is returned at once and a single
// background refresh is started. Otherwise the caller waits on the key's
// in-flight fetch, starting one if none exists. Cancelling ctx releases this
// waiter only; the fetch itself always runs to completion.
func (s *Store) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error), policy Policy) (any, error) {
	if fetch == nil {
		return nil, ErrNilFetcher
	}

	e := s.entryFor(key)
	now := s.clock.Now()

	e.mu.Lock()
	if e.servable() {
		switch policy.Classify(now.Sub(e.fetchedAt)) {
		case Fresh:
			value := e.value
			e.mu.Unlock()
			s.logger.Debug("cache hit", "key", key, "freshness", Fresh.String())
			return value, nil
		case Stale:
			value := e.value
			if !e.inFlight {
				s.background(s.flight(ctx, e, fetch))
				s.logger.Debug("cache stale, revalidating", "key", key)
			}
			e.mu.Unlock()
			return value, nil
		}
	}
	ch := s.flight(ctx, e, fetch)
	e.mu.Unlock()

	s.logger.Debug("cache miss", "key", key)

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Prefetch makes sure a fetch for key is running unless the value is fresh
// or a fetch is already in flight. It never blocks and reports whether it
// started a fetch.
func (s *Store) Prefetch(ctx context.Context, key string, fetch func(context.Context) (any, error), policy Policy) bool {
	if fetch == nil {
		return false
	}

	e := s.entryFor(key)
	now := s.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight {
		return false
	}
	if e.servable() && policy.Classify(now.Sub(e.fetchedAt)) == Fresh {
		return false
	}
	s.background(s.flight(ctx, e, fetch))
	return true
}

// Peek returns a snapshot of the entry without triggering a fetch.
func (s *Store) Peek(key string) (Entry, bool) {
	e, ok := s.entries.Load(key)
	if !ok {
		return Entry{Key: key, State: StateEmpty}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), true
}

// IsFresh reports whether key holds a value inside its fresh window.
func (s *Store) IsFresh(key string, policy Policy) bool {
	return s.classify(key, policy) == Fresh
}

// IsWarm reports whether GetOrFetch would return without waiting on the
// network, i.e. the value is fresh or stale.
func (s *Store) IsWarm(key string, policy Policy) bool {
	return s.classify(key, policy) != Expired
}

func (s *Store) classify(key string, policy Policy) Freshness {
	e, ok := s.entries.Load(key)
	if !ok {
		return Expired
	}
	now := s.clock.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.servable() {
		return Expired
	}
	return policy.Classify(now.Sub(e.fetchedAt))
}

// Seed stores value as READY with the given fetch time. It does not
// overwrite an entry that already holds a newer value.
func (s *Store) Seed(key string, value any, fetchedAt time.Time) bool {
	e := s.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.servable() && !e.fetchedAt.Before(fetchedAt) {
		return false
	}
	e.value = value
	e.fetchedAt = fetchedAt
	e.err = nil
	if !e.inFlight {
		e.state = StateReady
	} else {
		e.state = StateLoading
	}
	return true
}

// Invalidate forces key back to EMPTY. A fetch already in flight is not
// cancelled; see Config.DiscardSuperseded for what happens to its result.
func (s *Store) Invalidate(key string) {
	if e, ok := s.entries.Load(key); ok {
		e.mu.Lock()
		e.reset()
		e.mu.Unlock()
	}
	s.logger.Debug("cache invalidated", "key", key)
	s.events.Publish(Event{Type: EventInvalidated, Key: key})
}

// InvalidateByPrefix invalidates every entry of the given kind and returns
// how many entries were touched.
func (s *Store) InvalidateByPrefix(kind string) int {
	var keys []string
	s.entries.Range(func(key string, _ *entry) bool {
		if HasKindPrefix(key, kind) {
			keys = append(keys, key)
		}
		return true
	})

	for _, key := range keys {
		s.Invalidate(key)
	}
	s.events.Publish(Event{Type: EventInvalidated, Key: kind, Prefix: true})
	return len(keys)
}

// Evict removes the entry for key. An entry with a fetch in flight is only
// invalidated, so the running fetch keeps a home for its result.
func (s *Store) Evict(key string) {
	e, ok := s.entries.Load(key)
	if !ok {
		return
	}

	e.mu.Lock()
	inFlight := e.inFlight
	if inFlight {
		e.reset()
	}
	e.mu.Unlock()

	if inFlight {
		s.events.Publish(Event{Type: EventInvalidated, Key: key})
		return
	}
	s.entries.Delete(key)
	s.events.Publish(Event{Type: EventEvicted, Key: key})
}

// Keys returns the keys currently tracked by the store.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.entries.Size())
	s.entries.Range(func(key string, _ *entry) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Len returns the number of tracked entries.
func (s *Store) Len() int {
	return s.entries.Size()
}

// Reset drops every entry. Fetches in flight complete into detached entries.
func (s *Store) Reset() {
	s.entries.Clear()
}

// Wait blocks until every background refresh started so far has completed.
func (s *Store) Wait() {
	s.bg.Wait()
}

func (s *Store) entryFor(key string) *entry {
	e, _ := s.entries.LoadOrCompute(key, func() *entry {
		// Flights are keyed per entry so a fetch that outlives Reset or
		// Evict never captures the entry created after it.
		serial := strconv.FormatUint(s.serial.Add(1), 10)
		return &entry{key: key, flightKey: key + "#" + serial, state: StateEmpty}
	})
	return e
}

func (e *entry) reset() {
	e.value = nil
	e.fetchedAt = time.Time{}
	e.err = nil
	e.state = StateEmpty
	e.gen++
}

// flight joins or starts the fetch for e. Callers must hold e.mu, which keeps
// a completing fetch from clearing inFlight before the join is registered.
func (s *Store) flight(ctx context.Context, e *entry, fetch func(context.Context) (any, error)) <-chan singleflight.Result {
	if !e.inFlight {
		e.inFlight = true
		e.state = StateLoading
	}
	gen := e.gen
	return s.flights.DoChan(e.flightKey, func() (any, error) {
		return s.run(ctx, e, gen, fetch)
	})
}

func (s *Store) background(ch <-chan singleflight.Result) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		<-ch
	}()
}

func (s *Store) run(ctx context.Context, e *entry, gen uint64, fetch func(context.Context) (any, error)) (any, error) {
	fctx, span := s.tracer.Start(context.WithoutCancel(ctx), "freshcache.fetch",
		trace.WithAttributes(
			attribute.String("cache.key", e.key),
			attribute.String("cache.kind", KindOf(e.key)),
		),
	)
	defer span.End()

	value, err := fetch(fctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		err = &FetchError{Key: e.key, Err: err}
	}

	s.complete(e, gen, value, err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) complete(e *entry, gen uint64, value any, err error) {
	now := s.clock.Now()

	e.mu.Lock()
	e.inFlight = false
	var ev Event
	switch {
	case s.cfg.DiscardSuperseded && gen != e.gen:
		if e.state == StateLoading {
			e.state = StateEmpty
		}
		ev = Event{Type: EventDiscarded, Key: e.key, Value: value, Err: err}
	case err != nil:
		e.state = StateError
		e.err = err
		ev = Event{Type: EventFailed, Key: e.key, Err: err}
	default:
		e.value = value
		e.fetchedAt = now
		e.state = StateReady
		e.err = nil
		ev = Event{Type: EventFetched, Key: e.key, Value: value, FetchedAt: now}
	}
	e.mu.Unlock()

	if ev.Type == EventFailed {
		s.logger.Debug("cache fetch failed", "key", e.key, "error", err)
	}
	s.events.Publish(ev)
}
