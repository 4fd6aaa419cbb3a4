package routes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutations_InvalidateAfterWrites(t *testing.T) {
	tests := []struct {
		name    string
		write   func(ctx context.Context, m *Mutations) error
		dropped []string
		kept    []string
	}{
		{
			name: "toggle favorite",
			write: func(ctx context.Context, m *Mutations) error {
				_, err := m.ToggleFavorite(ctx, "u1", "berserk")
				return err
			},
			dropped: []string{"/favorites", "/manga/berserk"},
			kept:    []string{"/manga/vinland-saga", "/rankings", "/notifications"},
		},
		{
			name: "post comment",
			write: func(ctx context.Context, m *Mutations) error {
				_, err := m.PostComment(ctx, "u1", "berserk", "peak fiction")
				return err
			},
			dropped: []string{"/manga/berserk"},
			kept:    []string{"/favorites", "/manga/vinland-saga", "/rankings"},
		},
		{
			name: "rate manga",
			write: func(ctx context.Context, m *Mutations) error {
				return m.RateManga(ctx, "u1", "berserk", 10)
			},
			dropped: []string{"/manga/berserk", "/rankings", "/rankings?period=daily"},
			kept:    []string{"/favorites", "/manga/vinland-saga"},
		},
		{
			name: "mark notifications read",
			write: func(ctx context.Context, m *Mutations) error {
				return m.MarkNotificationsRead(ctx, "u1")
			},
			dropped: []string{"/notifications"},
			kept:    []string{"/favorites", "/manga/berserk", "/rankings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newResolverHarness(t, ResolverOptions{})
			ctx := context.Background()
			mutations := NewMutations(h.source, h.store, nil)

			all := append(append([]string(nil), tt.dropped...), tt.kept...)
			for _, path := range all {
				_, err := h.resolver.Load(ctx, path)
				require.NoError(t, err, path)
			}

			require.NoError(t, tt.write(ctx, mutations))

			for _, path := range tt.dropped {
				assert.False(t, h.resolver.IsWarm(path), "%s should be invalidated", path)
			}
			for _, path := range tt.kept {
				assert.True(t, h.resolver.IsWarm(path), "%s should stay cached", path)
			}
		})
	}
}

func TestMutations_FailedWriteKeepsCache(t *testing.T) {
	h := newResolverHarness(t, ResolverOptions{})
	ctx := context.Background()
	mutations := NewMutations(h.source, h.store, nil)

	_, err := h.resolver.Load(ctx, "/manga/berserk")
	require.NoError(t, err)

	boom := errors.New("write rejected")
	h.source.SetErr(boom)

	_, err = mutations.ToggleFavorite(ctx, "u1", "berserk")
	assert.ErrorIs(t, err, boom)
	assert.True(t, h.resolver.IsWarm("/manga/berserk"))
}

func TestMutations_ReadsPassThrough(t *testing.T) {
	source := newFakeSource()
	h := newResolverHarness(t, ResolverOptions{})
	mutations := NewMutations(source, h.store, nil)

	_, err := mutations.Manga(context.Background(), "berserk")
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls("Manga"))
}
