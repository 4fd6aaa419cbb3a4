package routes

import "context"

// Resource kinds. Each kind has its own staleness policy.
const (
	KindHomepage      = "homepage"
	KindManga         = "manga"
	KindChapter       = "chapter"
	KindCatalog       = "catalog"
	KindSearch        = "search"
	KindRankings      = "rankings"
	KindFavorites     = "favorites"
	KindNotifications = "notifications"
)

// Ranking periods accepted by DataSource.Rankings.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"
)

// DataSource is the data-access layer behind the reader.
type DataSource interface {
	Homepage(ctx context.Context, page int) (Homepage, error)
	Manga(ctx context.Context, slug string) (MangaDetail, error)
	Chapter(ctx context.Context, slug string, number int) (Chapter, error)
	Catalog(ctx context.Context, q CatalogQuery) (CatalogPage, error)
	Search(ctx context.Context, query string) (SearchResult, error)
	Rankings(ctx context.Context, period string) (Rankings, error)
	Favorites(ctx context.Context, userID string) (Favorites, error)
	Notifications(ctx context.Context, userID string) (Notifications, error)

	// ToggleFavorite flips the favorite flag and returns the new value.
	ToggleFavorite(ctx context.Context, userID, slug string) (bool, error)
	PostComment(ctx context.Context, userID, slug, body string) (Comment, error)
	// RateManga records a score from 1 to 10.
	RateManga(ctx context.Context, userID, slug string, score int) error
	MarkNotificationsRead(ctx context.Context, userID string) error
}
