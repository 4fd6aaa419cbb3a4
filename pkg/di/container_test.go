package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/internal/catalog"
	"github.com/goliatone/go-freshcache/pkg/testsupport"
	"github.com/goliatone/go-freshcache/routes"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T, clk *testsupport.FakeClock) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Open(context.Background(), ":memory:", catalog.Options{Clock: clk})
	if err != nil {
		t.Fatalf("catalog.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	seed, err := catalog.DefaultSeed()
	if err != nil {
		t.Fatalf("DefaultSeed() failed: %v", err)
	}
	if err := c.Seed(context.Background(), seed); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return c
}

func newTestContainer(t *testing.T, source routes.DataSource, session *testsupport.MapSession, clk *testsupport.FakeClock) *Container {
	t.Helper()
	deps := Dependencies{Source: source, Clock: clk}
	if session != nil {
		deps.Session = session
	}
	container, err := NewContainer(DefaultConfig(), deps)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(container.Close)
	return container
}

func TestNewContainer(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	container := newTestContainer(t, newCatalog(t, clk), testsupport.NewMapSession(), clk)

	if container.Store() == nil {
		t.Error("Container should have a non-nil store")
	}
	if container.Homepage() == nil {
		t.Error("Container should have a non-nil homepage cache")
	}
	if container.Resolver() == nil {
		t.Error("Container should have a non-nil resolver")
	}
	if container.Mutations() == nil {
		t.Error("Container should have a non-nil mutations decorator")
	}
	if container.Clock() != clk {
		t.Error("Container should use the injected clock")
	}

	policy := container.Store().PolicyFor(routes.MangaKey("berserk"))
	want := routes.DefaultPolicies()[routes.KindManga]
	if policy != want {
		t.Errorf("PolicyFor(manga) = %+v, want %+v", policy, want)
	}

	if _, ok := container.Config().Cache.Policies[routes.KindHomepage]; !ok {
		t.Error("Config() should carry the homepage policy")
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(newCatalog(t, testsupport.NewFakeClock(epoch)), nil)
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	if _, err := container.Resolver().Homepage(context.Background(), 1); err != nil {
		t.Errorf("Homepage() without a session tier failed: %v", err)
	}
	if err := container.Reset(); err != nil {
		t.Errorf("Reset() without a session tier failed: %v", err)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	source := newCatalog(t, testsupport.NewFakeClock(epoch))

	if _, err := NewContainer(DefaultConfig(), Dependencies{}); !errors.Is(err, ErrNilSource) {
		t.Errorf("NewContainer() without source error = %v, want ErrNilSource", err)
	}

	config := DefaultConfig()
	config.Cache = config.Cache.WithPolicy(routes.KindManga, cache.Policy{
		FreshWindow: time.Minute,
		HardExpiry:  time.Second,
	})
	_, err := NewContainer(config, Dependencies{Source: source})
	var cfgErr *cache.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewContainer() error = %v, want *cache.ConfigError", err)
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	container := newTestContainer(t, newCatalog(t, clk), nil, clk)

	if container.Store() != container.Store() {
		t.Error("Store() should return the same instance across calls")
	}
	if container.Resolver() != container.Resolver() {
		t.Error("Resolver() should return the same instance across calls")
	}
	if container.Resolver().Store() != container.Store() {
		t.Error("Resolver should read through the container store")
	}

	a, b := container.NewScheduler(), container.NewScheduler()
	defer a.Close()
	defer b.Close()
	if a == b {
		t.Error("NewScheduler() should return a new scheduler per call")
	}
}

func TestContainerSignInSwitchesUserData(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	container := newTestContainer(t, newCatalog(t, clk), nil, clk)
	ctx := context.Background()

	if _, err := container.Resolver().Load(ctx, "/favorites"); !errors.Is(err, routes.ErrSignedOut) {
		t.Fatalf("Load(/favorites) signed out error = %v, want ErrSignedOut", err)
	}

	container.SignIn("reader-1")
	got, err := container.Resolver().Load(ctx, "/favorites")
	if err != nil {
		t.Fatalf("Load(/favorites) failed: %v", err)
	}
	if favs := got.(routes.Favorites); len(favs.Items) != 2 {
		t.Errorf("reader-1 favorites = %d, want 2", len(favs.Items))
	}

	res, _ := container.Resolver().Resolve("/favorites")
	if entry, _ := container.Store().Peek(res.Key); entry.State != cache.StateReady {
		t.Fatalf("favorites state = %v, want READY", entry.State)
	}

	container.SignIn("reader-2")
	if entry, _ := container.Store().Peek(res.Key); entry.State != cache.StateEmpty {
		t.Errorf("favorites of reader-1 after sign-in of reader-2 = %v, want EMPTY", entry.State)
	}
	if container.CurrentUser() != "reader-2" {
		t.Errorf("CurrentUser() = %q, want reader-2", container.CurrentUser())
	}

	container.SignOut()
	if container.CurrentUser() != "" {
		t.Errorf("CurrentUser() after SignOut = %q, want empty", container.CurrentUser())
	}
}

func TestContainerReset(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	session := testsupport.NewMapSession()
	container := newTestContainer(t, newCatalog(t, clk), session, clk)

	if err := container.Warm(context.Background(), "/"); err != nil {
		t.Fatalf("Warm(/) failed: %v", err)
	}
	if session.Len() != 1 {
		t.Fatalf("session items = %d, want 1", session.Len())
	}

	if err := container.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if container.Store().Len() != 0 {
		t.Errorf("store entries after Reset = %d, want 0", container.Store().Len())
	}
	if session.Len() != 0 {
		t.Errorf("session items after Reset = %d, want 0", session.Len())
	}
}
