package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/hybridcache"
)

// LatencyObserver receives the duration of every completed fetch.
type LatencyObserver interface {
	Observe(time.Duration)
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// CurrentUser returns the signed-in user ID, or "" when signed out.
	CurrentUser func() string
	// Latency, when set, observes every fetch that reached the source.
	Latency LatencyObserver
	Logger  *slog.Logger
}

// Resolver loads reader paths through the cache.
type Resolver struct {
	store   *cache.Store
	source  DataSource
	home    *hybridcache.Hybrid[Homepage]
	user    func() string
	latency LatencyObserver
	logger  *slog.Logger
}

// NewResolver creates a Resolver. When home is nil homepage paths use the
// store directly, without a session tier.
func NewResolver(store *cache.Store, source DataSource, home *hybridcache.Hybrid[Homepage], opts ResolverOptions) *Resolver {
	r := &Resolver{
		store:   store,
		source:  source,
		home:    home,
		user:    opts.CurrentUser,
		latency: opts.Latency,
		logger:  opts.Logger,
	}
	if r.user == nil {
		r.user = func() string { return "" }
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Store returns the underlying cache store.
func (r *Resolver) Store() *cache.Store {
	return r.store
}

// Resolve parses path for the current user.
func (r *Resolver) Resolve(path string) (Resource, error) {
	return Parse(path, r.user())
}

// Load returns the data behind path, waiting on the network only when the
// cache has nothing servable.
func (r *Resolver) Load(ctx context.Context, path string) (any, error) {
	res, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	if res.UserScoped() && res.stringParam("user") == "" {
		return nil, ErrSignedOut
	}
	if res.Kind == KindHomepage && r.home != nil {
		return r.home.Get(ctx, res.intParam("page"))
	}
	return r.store.GetOrFetch(ctx, res.Key, r.fetcher(res), r.store.PolicyFor(res.Key))
}

// Prefetch warms path without blocking. Unknown and signed-out routes are
// errors; a route that is already fresh or loading is not.
func (r *Resolver) Prefetch(ctx context.Context, path string) error {
	res, err := r.Resolve(path)
	if err != nil {
		return err
	}
	if res.UserScoped() && res.stringParam("user") == "" {
		return ErrSignedOut
	}
	if res.Kind == KindHomepage && r.home != nil {
		r.home.Prefetch(ctx, res.intParam("page"))
		return nil
	}
	r.store.Prefetch(ctx, res.Key, r.fetcher(res), r.store.PolicyFor(res.Key))
	return nil
}

// IsWarm reports whether path can be shown without waiting on the network.
// Homepage paths only count the memory tier.
func (r *Resolver) IsWarm(path string) bool {
	res, err := r.Resolve(path)
	if err != nil {
		return false
	}
	if res.UserScoped() && res.stringParam("user") == "" {
		return false
	}
	if res.Kind == KindHomepage && r.home != nil {
		return r.home.HasFreshData(res.intParam("page"))
	}
	return r.store.IsWarm(res.Key, r.store.PolicyFor(res.Key))
}

// Invalidate drops the cached data behind path.
func (r *Resolver) Invalidate(path string) error {
	res, err := r.Resolve(path)
	if err != nil {
		return err
	}
	if res.Kind == KindHomepage && r.home != nil {
		r.home.Invalidate(res.intParam("page"))
		return nil
	}
	r.store.Invalidate(res.Key)
	return nil
}

// Peek returns the cached entry for path without fetching.
func (r *Resolver) Peek(path string) (cache.Entry, bool) {
	res, err := r.Resolve(path)
	if err != nil {
		return cache.Entry{}, false
	}
	return r.store.Peek(res.Key)
}

// Homepage loads one page of the homepage.
func (r *Resolver) Homepage(ctx context.Context, page int) (Homepage, error) {
	return load[Homepage](ctx, r, HomePath(page))
}

// Manga loads the manga page for slug.
func (r *Resolver) Manga(ctx context.Context, slug string) (MangaDetail, error) {
	return load[MangaDetail](ctx, r, MangaPath(slug))
}

// Chapter loads a chapter.
func (r *Resolver) Chapter(ctx context.Context, slug string, number int) (Chapter, error) {
	return load[Chapter](ctx, r, ChapterPath(slug, number))
}

func load[T any](ctx context.Context, r *Resolver, path string) (T, error) {
	var zero T
	v, err := r.Load(ctx, path)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", cache.ErrInvalidResultType, path, v)
	}
	return typed, nil
}

// HomepageFetcher adapts a DataSource to the hybrid cache.
func HomepageFetcher(source DataSource) hybridcache.PageFetchFn[Homepage] {
	return source.Homepage
}

func (r *Resolver) fetcher(res Resource) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		start := r.store.Clock().Now()
		v, err := r.fetch(ctx, res)
		if err == nil && r.latency != nil {
			r.latency.Observe(r.store.Clock().Now().Sub(start))
		}
		return v, err
	}
}

func (r *Resolver) fetch(ctx context.Context, res Resource) (any, error) {
	switch res.Kind {
	case KindHomepage:
		return r.source.Homepage(ctx, res.intParam("page"))
	case KindManga:
		return r.source.Manga(ctx, res.stringParam("slug"))
	case KindChapter:
		return r.source.Chapter(ctx, res.stringParam("slug"), res.intParam("number"))
	case KindCatalog:
		return r.source.Catalog(ctx, CatalogQuery{
			Genre:  res.stringParam("genre"),
			Status: res.stringParam("status"),
			Sort:   res.stringParam("sort"),
			Page:   res.intParam("page"),
		})
	case KindSearch:
		return r.source.Search(ctx, res.stringParam("q"))
	case KindRankings:
		return r.source.Rankings(ctx, res.stringParam("period"))
	case KindFavorites:
		return r.source.Favorites(ctx, res.stringParam("user"))
	case KindNotifications:
		return r.source.Notifications(ctx, res.stringParam("user"))
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownRoute, res.Kind)
	}
}
