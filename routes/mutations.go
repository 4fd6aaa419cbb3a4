package routes

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-freshcache/cache"
)

// Interface assertion to ensure Mutations implements DataSource
var _ DataSource = (*Mutations)(nil)

// Invalidator is the part of the cache store Mutations needs.
type Invalidator interface {
	Invalidate(key string)
	InvalidateByPrefix(kind string) int
}

// Mutations decorates a DataSource so that successful writes invalidate the
// cached reads they affect. Reads pass through to the base source.
type Mutations struct {
	DataSource
	cache  Invalidator
	logger *slog.Logger
}

// NewMutations wraps base. A nil logger discards.
func NewMutations(base DataSource, invalidator Invalidator, logger *slog.Logger) *Mutations {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mutations{DataSource: base, cache: invalidator, logger: logger}
}

// ToggleFavorite flips a favorite. Write operations pass through to the base source
func (m *Mutations) ToggleFavorite(ctx context.Context, userID, slug string) (bool, error) {
	favorite, err := m.DataSource.ToggleFavorite(ctx, userID, slug)
	if err == nil {
		m.invalidateAfterFavorite(slug)
	}
	return favorite, err
}

// PostComment adds a comment to a manga page
func (m *Mutations) PostComment(ctx context.Context, userID, slug, body string) (Comment, error) {
	comment, err := m.DataSource.PostComment(ctx, userID, slug, body)
	if err == nil {
		m.invalidateAfterComment(slug)
	}
	return comment, err
}

// RateManga records a rating
func (m *Mutations) RateManga(ctx context.Context, userID, slug string, score int) error {
	err := m.DataSource.RateManga(ctx, userID, slug, score)
	if err == nil {
		m.invalidateAfterRating(slug)
	}
	return err
}

// MarkNotificationsRead clears the unread flag of every notification
func (m *Mutations) MarkNotificationsRead(ctx context.Context, userID string) error {
	err := m.DataSource.MarkNotificationsRead(ctx, userID)
	if err == nil {
		m.invalidateAfterNotificationsRead()
	}
	return err
}

// invalidateAfterFavorite drops favorite lists and the manga's favorite count
func (m *Mutations) invalidateAfterFavorite(slug string) {
	m.invalidateKind(KindFavorites)
	m.invalidateKey(MangaKey(slug))
}

// invalidateAfterComment drops the manga page holding the comments
func (m *Mutations) invalidateAfterComment(slug string) {
	m.invalidateKey(MangaKey(slug))
}

// invalidateAfterRating drops the manga page and every ranking, since one
// score can reorder all periods
func (m *Mutations) invalidateAfterRating(slug string) {
	m.invalidateKey(MangaKey(slug))
	m.invalidateKind(KindRankings)
}

func (m *Mutations) invalidateAfterNotificationsRead() {
	m.invalidateKind(KindNotifications)
}

func (m *Mutations) invalidateKey(key string) {
	m.cache.Invalidate(key)
	m.logger.Debug("invalidated after write", "key", key)
}

func (m *Mutations) invalidateKind(kind string) {
	n := m.cache.InvalidateByPrefix(kind)
	m.logger.Debug("invalidated kind after write", "kind", kind, "entries", n)
}

var _ Invalidator = (*cache.Store)(nil)
