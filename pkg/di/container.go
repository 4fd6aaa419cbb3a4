package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/hybridcache"
	"github.com/goliatone/go-freshcache/navigation"
	"github.com/goliatone/go-freshcache/pkg/clock"
	"github.com/goliatone/go-freshcache/pkg/signals"
	"github.com/goliatone/go-freshcache/prefetch"
	"github.com/goliatone/go-freshcache/routes"
)

// ErrNilSource is returned when the container is built without a data source.
var ErrNilSource = errors.New("di: data source is required")

// Config groups the settings of every component the container builds.
// Clock and Logger fields inside the nested options are ignored; the
// container injects its own.
type Config struct {
	Cache      cache.Config
	Hybrid     hybridcache.Options
	Prefetch   prefetch.Options
	Navigation navigation.Options
	// SaveData seeds the network hint of the latency monitor.
	SaveData bool
}

// DefaultConfig returns the reader defaults: routes.DefaultPolicies on the
// store and zero-value options everywhere else.
func DefaultConfig() Config {
	return Config{Cache: routes.CacheConfig(nil)}
}

// Dependencies are the collaborators the container does not create.
type Dependencies struct {
	// Source is required.
	Source routes.DataSource
	// Session backs the homepage session tier. Nil disables the tier.
	Session hybridcache.SessionStorage
	Clock   clock.Clock
	Logger  *slog.Logger
	Tracer  trace.Tracer
}

// Container is the application context of the reader. It owns one instance
// of every cache component and wires them together: the resolver reads
// through the store and the homepage hybrid cache, writes go through the
// mutations decorator, and auth events invalidate user data.
type Container struct {
	config  Config
	clock   clock.Clock
	logger  *slog.Logger
	session hybridcache.SessionStorage

	store     *cache.Store
	latency   *prefetch.LatencyMonitor
	home      *hybridcache.Hybrid[routes.Homepage]
	resolver  *routes.Resolver
	mutations *routes.Mutations
	auth      *signals.Bus[routes.AuthEvent]
	unwatch   func()

	mu   sync.RWMutex
	user string
}

// NewContainer validates config and builds every component.
func NewContainer(config Config, deps Dependencies) (*Container, error) {
	if deps.Source == nil {
		return nil, ErrNilSource
	}

	c := &Container{
		config:  config,
		clock:   clock.OrReal(deps.Clock),
		logger:  deps.Logger,
		session: deps.Session,
		auth:    signals.NewBus[routes.AuthEvent](),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	opts := []cache.Option{
		cache.WithClock(c.clock),
		cache.WithLogger(c.logger.With("component", "cache")),
	}
	if deps.Tracer != nil {
		opts = append(opts, cache.WithTracer(deps.Tracer))
	}
	store, err := cache.NewStore(config.Cache, opts...)
	if err != nil {
		return nil, err
	}
	c.store = store
	c.latency = prefetch.NewLatencyMonitor(config.SaveData)

	hopts := config.Hybrid
	hopts.Kind = routes.KindHomepage
	hopts.Clock = c.clock
	hopts.Logger = c.logger.With("component", "hybridcache")
	c.home, err = hybridcache.New(store, deps.Session, routes.HomepageFetcher(deps.Source), hopts)
	if err != nil {
		return nil, fmt.Errorf("homepage cache: %w", err)
	}

	c.resolver = routes.NewResolver(store, deps.Source, c.home, routes.ResolverOptions{
		CurrentUser: c.CurrentUser,
		Latency:     c.latency,
		Logger:      c.logger.With("component", "routes"),
	})
	c.mutations = routes.NewMutations(deps.Source, store, c.logger.With("component", "mutations"))
	c.unwatch = c.resolver.WatchAuth(c.auth)

	return c, nil
}

// NewContainerWithDefaults builds a container with DefaultConfig.
func NewContainerWithDefaults(source routes.DataSource, session hybridcache.SessionStorage) (*Container, error) {
	return NewContainer(DefaultConfig(), Dependencies{Source: source, Session: session})
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

func (c *Container) Clock() clock.Clock {
	return c.clock
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Store returns the singleton cache store.
func (c *Container) Store() *cache.Store {
	return c.store
}

// Homepage returns the hybrid cache of the homepage.
func (c *Container) Homepage() *hybridcache.Hybrid[routes.Homepage] {
	return c.home
}

// Resolver returns the path resolver all reads go through.
func (c *Container) Resolver() *routes.Resolver {
	return c.resolver
}

// Mutations returns the data source decorated with cache invalidation.
func (c *Container) Mutations() *routes.Mutations {
	return c.mutations
}

// Latency returns the monitor fed by every fetch. It is the network hint of
// the schedulers built by NewScheduler.
func (c *Container) Latency() *prefetch.LatencyMonitor {
	return c.latency
}

// Auth returns the bus auth changes are published on.
func (c *Container) Auth() *signals.Bus[routes.AuthEvent] {
	return c.auth
}

// CurrentUser returns the signed-in user, or "" when signed out.
func (c *Container) CurrentUser() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SignIn switches the current user and announces it on the auth bus.
func (c *Container) SignIn(userID string) {
	c.mu.Lock()
	changed := c.user != userID
	c.user = userID
	c.mu.Unlock()

	if changed {
		c.auth.Publish(routes.AuthEvent{Type: routes.SignedIn, UserID: userID})
	}
}

// SignOut clears the current user and announces it on the auth bus.
func (c *Container) SignOut() {
	c.mu.Lock()
	previous := c.user
	c.user = ""
	c.mu.Unlock()

	if previous != "" {
		c.auth.Publish(routes.AuthEvent{Type: routes.SignedOut, UserID: previous})
	}
}

// NewScheduler creates a prefetch scheduler that warms paths through the
// resolver. Every call returns a new scheduler with its own attempted set.
func (c *Container) NewScheduler() *prefetch.Scheduler {
	opts := c.config.Prefetch
	if opts.Network == nil {
		opts.Network = c.latency
	}
	opts.Clock = c.clock
	opts.Logger = c.logger.With("component", "prefetch")
	return prefetch.New(c.resolver, opts)
}

// NewCoordinator creates a navigation coordinator for nav that treats paths
// the resolver reports warm as instant.
func (c *Container) NewCoordinator(nav navigation.Navigator) *navigation.Coordinator {
	opts := c.config.Navigation
	opts.Clock = c.clock
	opts.Logger = c.logger.With("component", "navigation")
	return navigation.New(nav, c.resolver.IsWarm, opts)
}

// Reset clears every cache tier. Fetches already running complete into
// detached entries.
func (c *Container) Reset() error {
	c.store.Reset()
	if c.session == nil {
		return nil
	}
	if err := c.session.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close stops the event subscriptions and waits for background refreshes.
func (c *Container) Close() {
	c.unwatch()
	c.home.Close()
	c.store.Wait()
}

// Warm loads path through the resolver and discards the value.
func (c *Container) Warm(ctx context.Context, path string) error {
	_, err := c.resolver.Load(ctx, path)
	return err
}
