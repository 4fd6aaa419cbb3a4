package hybridcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/pkg/testsupport"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type homepage struct {
	Page   int      `json:"page" msgpack:"page"`
	Titles []string `json:"titles" msgpack:"titles"`
}

type harness struct {
	store   *cache.Store
	clock   *testsupport.FakeClock
	session *testsupport.MapSession
	fetcher *testsupport.CountingFetcher[homepage]
	hybrid  *Hybrid[homepage]
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	clk := testsupport.NewFakeClock(epoch)
	cfg := cache.DefaultConfig().WithPolicy("homepage", cache.Policy{
		FreshWindow: 5 * time.Second,
		HardExpiry:  time.Minute,
	})
	store, err := cache.NewStore(cfg, cache.WithClock(clk))
	require.NoError(t, err)

	h := &harness{
		store:   store,
		clock:   clk,
		session: testsupport.NewMapSession(),
	}
	h.fetcher = testsupport.NewCountingFetcher(func(call int) (homepage, error) {
		return homepage{Page: call, Titles: []string{"one-piece", "berserk"}}, nil
	})

	h.hybrid, err = New(store, h.session, func(ctx context.Context, page int) (homepage, error) {
		v, err := h.fetcher.Fetch(ctx)
		v.Page = page
		return v, err
	}, opts)
	require.NoError(t, err)
	t.Cleanup(h.hybrid.Close)
	return h
}

func TestNew_Validation(t *testing.T) {
	store, err := cache.NewStore(cache.DefaultConfig())
	require.NoError(t, err)

	_, err = New[homepage](nil, nil, func(context.Context, int) (homepage, error) { return homepage{}, nil }, Options{})
	assert.Error(t, err)

	_, err = New[homepage](store, nil, nil, Options{})
	assert.ErrorIs(t, err, cache.ErrNilFetcher)
}

func TestHybrid_Keys(t *testing.T) {
	h := newHarness(t, Options{})

	assert.Equal(t, "homepage::page=3", h.hybrid.Key(3))
	assert.Equal(t, "hybrid-cache:homepage:3", h.hybrid.SessionKey(3))
	assert.Equal(t, "homepage", h.hybrid.Kind())
}

func TestHybrid_SessionRoundTrip(t *testing.T) {
	h := newHarness(t, Options{SessionTTL: 10 * time.Minute})
	ctx := context.Background()

	first, err := h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, h.fetcher.Calls())

	raw, ok, err := h.session.GetItem("hybrid-cache:homepage:1")
	require.NoError(t, err)
	require.True(t, ok, "successful fetch should be mirrored into the session")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Contains(t, record, "value")
	assert.Equal(t, epoch.Format(time.RFC3339), record["fetchedAt"])

	// Fresh process: memory is gone, the session survives. The record is
	// past the store's hard expiry but inside the session TTL.
	h.store.Reset()
	h.clock.Advance(2 * time.Minute)

	second, err := h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.fetcher.Calls(), "hydration should not fetch")

	entry, ok := h.store.Peek(h.hybrid.Key(1))
	require.True(t, ok)
	assert.Equal(t, cache.StateReady, entry.State)
	assert.True(t, entry.FetchedAt.Equal(epoch), "hydrated entry keeps the original fetch time")

	h.store.Reset()
	h.clock.Advance(9 * time.Minute)

	_, err = h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, h.fetcher.Calls(), "expired session record should fall through to a fetch")
}

func TestHybrid_SessionReadOnlyWhenMemoryEmpty(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	_, err := h.hybrid.Get(ctx, 1)
	require.NoError(t, err)

	forged, err := JSONCodec{}.Encode(Record[homepage]{Value: homepage{Page: 99}, FetchedAt: epoch})
	require.NoError(t, err)
	require.NoError(t, h.session.SetItem("hybrid-cache:homepage:1", forged))

	got, err := h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page, "memory tier wins while it holds a value")
}

func TestHybrid_HasFreshDataChecksMemoryOnly(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	record, err := JSONCodec{}.Encode(Record[homepage]{Value: homepage{Page: 1}, FetchedAt: epoch})
	require.NoError(t, err)
	require.NoError(t, h.session.SetItem("hybrid-cache:homepage:1", record))

	assert.False(t, h.hybrid.HasFreshData(1), "session copy alone is not fresh data")

	_, err = h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, h.hybrid.HasFreshData(1))

	h.clock.Advance(5 * time.Second)
	assert.False(t, h.hybrid.HasFreshData(1))
}

func TestHybrid_StorageFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testsupport.MapSession)
	}{
		{name: "read failure", setup: func(s *testsupport.MapSession) { s.FailReads = true }},
		{name: "write failure", setup: func(s *testsupport.MapSession) { s.FailWrites = true }},
		{name: "corrupt record", setup: func(s *testsupport.MapSession) {
			_ = s.SetItem("hybrid-cache:homepage:1", "{not json")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			tt.setup(h.session)

			got, err := h.hybrid.Get(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, 1, got.Page)
			assert.Equal(t, 1, h.fetcher.Calls())
		})
	}
}

func TestHybrid_QuotaExceededIsSwallowed(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	store, err := cache.NewStore(cache.DefaultConfig(), cache.WithClock(clk))
	require.NoError(t, err)

	cfg := DefaultSessionConfig()
	cfg.MaxItemBytes = 16
	session, err := NewMemorySession(cfg)
	require.NoError(t, err)

	hybrid, err := New(store, session, func(context.Context, int) (homepage, error) {
		return homepage{Titles: []string{"a title longer than the quota"}}, nil
	}, Options{})
	require.NoError(t, err)
	defer hybrid.Close()

	_, err = hybrid.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Len())
}

func TestHybrid_FetchErrorIsNotMirrored(t *testing.T) {
	clk := testsupport.NewFakeClock(epoch)
	store, err := cache.NewStore(cache.DefaultConfig(), cache.WithClock(clk))
	require.NoError(t, err)
	session := testsupport.NewMapSession()
	boom := errors.New("upstream down")

	hybrid, err := New(store, session, func(context.Context, int) (homepage, error) {
		return homepage{}, boom
	}, Options{})
	require.NoError(t, err)
	defer hybrid.Close()

	_, err = hybrid.Get(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, session.Len())
}

func TestHybrid_InvalidateClearsBothTiers(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		_, err := h.hybrid.Get(ctx, page)
		require.NoError(t, err)
	}
	require.Equal(t, 3, h.session.Len())

	h.hybrid.Invalidate(2)
	_, ok, _ := h.session.GetItem("hybrid-cache:homepage:2")
	assert.False(t, ok)
	assert.False(t, h.hybrid.HasFreshData(2))
	assert.True(t, h.hybrid.HasFreshData(1))

	h.hybrid.InvalidateAll()
	assert.Equal(t, 0, h.session.Len())
	assert.False(t, h.hybrid.HasFreshData(1))
}

func TestHybrid_StoreInvalidationReachesSession(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	_, err := h.hybrid.Get(ctx, 1)
	require.NoError(t, err)
	_, err = h.hybrid.Get(ctx, 2)
	require.NoError(t, err)

	h.store.Invalidate(h.hybrid.Key(1))
	_, ok, _ := h.session.GetItem("hybrid-cache:homepage:1")
	assert.False(t, ok)

	h.store.InvalidateByPrefix("homepage")
	assert.Equal(t, 0, h.session.Len())
}

func TestHybrid_IgnoresOtherKinds(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := cache.Get[string](context.Background(), h.store, "manga::slug=berserk", func(context.Context) (string, error) {
		return "berserk", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, h.session.Len())
}

func TestHybrid_CloseStopsMirroring(t *testing.T) {
	h := newHarness(t, Options{})
	h.hybrid.Close()

	_, err := h.hybrid.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, h.session.Len())
}

func TestHybrid_PrefetchHydratesOrFetches(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	assert.True(t, h.hybrid.Prefetch(ctx, 1))
	h.store.Wait()
	assert.Equal(t, 1, h.fetcher.Calls())
	assert.False(t, h.hybrid.Prefetch(ctx, 1), "fresh page needs no prefetch")

	h.store.Reset()
	assert.False(t, h.hybrid.Prefetch(ctx, 1), "session record hydrates instead of fetching")
	assert.True(t, h.hybrid.HasFreshData(1))
	assert.Equal(t, 1, h.fetcher.Calls())
}

func TestHybrid_MsgpackCodec(t *testing.T) {
	h := newHarness(t, Options{Codec: MsgpackCodec{}})
	ctx := context.Background()

	first, err := h.hybrid.Get(ctx, 4)
	require.NoError(t, err)

	h.store.Reset()
	second, err := h.hybrid.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.fetcher.Calls())
}

func TestHybrid_SQLiteSessionSurvivesStoreReset(t *testing.T) {
	session, err := OpenSQLiteSession(context.Background(), ":memory:")
	require.NoError(t, err)
	defer session.Close()

	clk := testsupport.NewFakeClock(epoch)
	store, err := cache.NewStore(cache.DefaultConfig(), cache.WithClock(clk))
	require.NoError(t, err)

	calls := 0
	hybrid, err := New(store, session, func(_ context.Context, page int) (homepage, error) {
		calls++
		return homepage{Page: page}, nil
	}, Options{})
	require.NoError(t, err)
	defer hybrid.Close()

	_, err = hybrid.Get(context.Background(), 1)
	require.NoError(t, err)

	store.Reset()
	got, err := hybrid.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 1, calls)
}

func TestHybrid_HydratesRecordWrittenByEarlierSession(t *testing.T) {
	h := newHarness(t, Options{})
	raw := testsupport.SessionRecord(t, "homepage_record.json")
	require.NoError(t, h.session.SetItem("hybrid-cache:homepage:1", raw))

	got, err := h.hybrid.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, homepage{Page: 7, Titles: []string{"vinland-saga", "monster"}}, got)
	assert.Zero(t, h.fetcher.Calls())
}
