package hybridcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/pkg/clock"
)

const (
	DefaultKind          = "homepage"
	DefaultSessionPrefix = "hybrid-cache:"
	DefaultSessionTTL    = 10 * time.Minute
)

// PageFetchFn fetches one page of the resource.
type PageFetchFn[T any] func(ctx context.Context, page int) (T, error)

// Options configures a Hybrid cache. Zero values take the defaults.
type Options struct {
	// Kind is the cache kind of the resource. Default: "homepage"
	Kind string
	// SessionPrefix namespaces the session keys. Default: "hybrid-cache:"
	SessionPrefix string
	// SessionTTL bounds how old a session record may be to hydrate the
	// memory tier. It is independent of the store's policy. Default: 10m
	SessionTTL time.Duration
	// Codec encodes session records. Default: JSONCodec
	Codec Codec
	// Clock defaults to the store's clock.
	Clock  clock.Clock
	Logger *slog.Logger
}

func (o Options) withDefaults(store *cache.Store) Options {
	if o.Kind == "" {
		o.Kind = DefaultKind
	}
	if o.SessionPrefix == "" {
		o.SessionPrefix = DefaultSessionPrefix
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.Codec == nil {
		o.Codec = JSONCodec{}
	}
	if o.Clock == nil {
		o.Clock = store.Clock()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Record is the session-tier copy of an entry.
type Record[T any] struct {
	Value     T         `json:"value" msgpack:"value"`
	FetchedAt time.Time `json:"fetchedAt" msgpack:"fetchedAt"`
}

// Hybrid is a memory + session cache for one paged resource.
type Hybrid[T any] struct {
	store       *cache.Store
	session     SessionStorage
	fetch       PageFetchFn[T]
	opts        Options
	unsubscribe func()
}

// New wires a hybrid cache on top of store. A nil session disables the
// session tier.
func New[T any](store *cache.Store, session SessionStorage, fetch PageFetchFn[T], opts Options) (*Hybrid[T], error) {
	if store == nil {
		return nil, errors.New("hybridcache: store is required")
	}
	if fetch == nil {
		return nil, cache.ErrNilFetcher
	}

	h := &Hybrid[T]{
		store:   store,
		session: session,
		fetch:   fetch,
		opts:    opts.withDefaults(store),
	}
	h.unsubscribe = store.Events().Subscribe(h.onEvent)
	return h, nil
}

// Kind returns the cache kind served by h.
func (h *Hybrid[T]) Kind() string {
	return h.opts.Kind
}

// Key returns the memory-tier key of page.
func (h *Hybrid[T]) Key(page int) string {
	return cache.MustBuildKey(h.opts.Kind, map[string]any{"page": page})
}

// SessionKey returns the session-tier key of page, e.g. "hybrid-cache:homepage:1".
func (h *Hybrid[T]) SessionKey(page int) string {
	return h.opts.SessionPrefix + h.opts.Kind + ":" + strconv.Itoa(page)
}

// Get returns page, trying the memory tier, then the session tier, then
// the network.
func (h *Hybrid[T]) Get(ctx context.Context, page int) (T, error) {
	key := h.Key(page)

	if value, ok := h.hydrate(key, page); ok {
		return value, nil
	}

	return cache.GetOrFetch(ctx, h.store, key, h.fetchFn(page), h.store.PolicyFor(key))
}

// Prefetch makes sure page is fresh in the memory tier without blocking.
// A hydratable session record counts as a prefetch hit.
func (h *Hybrid[T]) Prefetch(ctx context.Context, page int) bool {
	key := h.Key(page)
	if _, ok := h.hydrate(key, page); ok {
		return false
	}
	return cache.Prefetch(ctx, h.store, key, h.fetchFn(page), h.store.PolicyFor(key))
}

// HasFreshData reports whether the memory tier holds a fresh copy of page.
// The session tier is not consulted.
func (h *Hybrid[T]) HasFreshData(page int) bool {
	key := h.Key(page)
	return h.store.IsFresh(key, h.store.PolicyFor(key))
}

// Invalidate drops page from both tiers.
func (h *Hybrid[T]) Invalidate(page int) {
	h.store.Invalidate(h.Key(page))
	h.removeSession(h.SessionKey(page))
}

// InvalidateAll drops every page from both tiers.
func (h *Hybrid[T]) InvalidateAll() {
	h.store.InvalidateByPrefix(h.opts.Kind)
	h.clearSession()
}

// Close stops mirroring store events into the session tier.
func (h *Hybrid[T]) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

func (h *Hybrid[T]) fetchFn(page int) cache.FetchFn[T] {
	return func(ctx context.Context) (T, error) {
		return h.fetch(ctx, page)
	}
}

// hydrate seeds the memory tier from the session tier when the memory entry
// is empty and idle.
func (h *Hybrid[T]) hydrate(key string, page int) (T, bool) {
	var zero T
	if h.session == nil {
		return zero, false
	}
	if entry, ok := h.store.Peek(key); ok && (entry.State != cache.StateEmpty || entry.InFlight) {
		return zero, false
	}

	record, ok := h.readSession(page)
	if !ok {
		return zero, false
	}
	age := h.opts.Clock.Now().Sub(record.FetchedAt)
	if age < 0 || age >= h.opts.SessionTTL {
		h.opts.Logger.Debug("session record expired", "key", key, "age", age)
		return zero, false
	}
	if !h.store.Seed(key, record.Value, record.FetchedAt) {
		return zero, false
	}

	h.opts.Logger.Debug("hydrated from session", "key", key, "age", age)
	return record.Value, true
}

func (h *Hybrid[T]) readSession(page int) (Record[T], bool) {
	var record Record[T]
	skey := h.SessionKey(page)

	raw, ok, err := h.session.GetItem(skey)
	if err != nil {
		h.storageFailure("read", skey, err)
		return record, false
	}
	if !ok {
		return record, false
	}
	if err := h.opts.Codec.Decode(raw, &record); err != nil {
		h.storageFailure("decode", skey, err)
		return record, false
	}
	if record.FetchedAt.IsZero() {
		return record, false
	}
	return record, true
}

func (h *Hybrid[T]) writeSession(page int, value T, fetchedAt time.Time) {
	if h.session == nil {
		return
	}
	skey := h.SessionKey(page)

	raw, err := h.opts.Codec.Encode(Record[T]{Value: value, FetchedAt: fetchedAt})
	if err != nil {
		h.storageFailure("encode", skey, err)
		return
	}
	if err := h.session.SetItem(skey, raw); err != nil {
		h.storageFailure("write", skey, err)
	}
}

func (h *Hybrid[T]) removeSession(skey string) {
	if h.session == nil {
		return
	}
	if err := h.session.RemoveItem(skey); err != nil {
		h.storageFailure("remove", skey, err)
	}
}

func (h *Hybrid[T]) clearSession() {
	if h.session == nil {
		return
	}
	prefix := h.opts.SessionPrefix + h.opts.Kind + ":"
	keys, err := h.session.Keys(prefix)
	if err != nil {
		h.storageFailure("list", prefix, err)
		return
	}
	for _, skey := range keys {
		h.removeSession(skey)
	}
}

func (h *Hybrid[T]) storageFailure(op, skey string, err error) {
	h.opts.Logger.Debug("session storage failure",
		"op", op,
		"key", skey,
		"error", fmt.Errorf("%w: %w", ErrStorageUnavailable, err),
	)
}

// onEvent mirrors memory-tier changes of h's kind into the session tier.
// Store events are published after the entry update is committed, so the
// session write always follows the memory write.
func (h *Hybrid[T]) onEvent(ev cache.Event) {
	if ev.Type == cache.EventInvalidated && ev.Prefix {
		if ev.Key == h.opts.Kind {
			h.clearSession()
		}
		return
	}
	if cache.KindOf(ev.Key) != h.opts.Kind {
		return
	}

	page, ok := h.pageOf(ev.Key)
	if !ok {
		return
	}

	switch ev.Type {
	case cache.EventFetched:
		value, ok := ev.Value.(T)
		if !ok {
			h.opts.Logger.Debug("skipping session write for unexpected value type",
				"key", ev.Key, "type", fmt.Sprintf("%T", ev.Value))
			return
		}
		h.writeSession(page, value, ev.FetchedAt)
	case cache.EventInvalidated:
		h.removeSession(h.SessionKey(page))
	}
}

func (h *Hybrid[T]) pageOf(key string) (int, bool) {
	_, params, err := cache.ParseKey(key)
	if err != nil {
		return 0, false
	}
	page, err := strconv.Atoi(strings.TrimSpace(params["page"]))
	if err != nil {
		return 0, false
	}
	return page, true
}
