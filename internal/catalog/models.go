package catalog

import (
	"time"

	"github.com/uptrace/bun"
)

type mangaModel struct {
	bun.BaseModel `bun:"table:manga,alias:m"`

	ID            string    `bun:"id,pk"`
	Slug          string    `bun:"slug,unique,notnull"`
	Title         string    `bun:"title,notnull"`
	Authors       string    `bun:"authors"`
	Status        string    `bun:"status,notnull"`
	Synopsis      string    `bun:"synopsis"`
	RatingAvg     float64   `bun:"rating_avg,notnull,default:0"`
	RatingCount   int       `bun:"rating_count,notnull,default:0"`
	LatestChapter int       `bun:"latest_chapter,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

type genreModel struct {
	bun.BaseModel `bun:"table:manga_genres"`

	MangaID string `bun:"manga_id,pk"`
	Genre   string `bun:"genre,pk"`
}

type chapterModel struct {
	bun.BaseModel `bun:"table:chapters"`

	MangaID     string    `bun:"manga_id,pk"`
	Number      int       `bun:"number,pk"`
	Title       string    `bun:"title"`
	PageCount   int       `bun:"page_count,notnull"`
	PublishedAt time.Time `bun:"published_at,notnull"`
}

type ratingModel struct {
	bun.BaseModel `bun:"table:ratings"`

	MangaID   string    `bun:"manga_id,pk"`
	UserID    string    `bun:"user_id,pk"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type favoriteModel struct {
	bun.BaseModel `bun:"table:favorites"`

	UserID    string    `bun:"user_id,pk"`
	MangaID   string    `bun:"manga_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type commentModel struct {
	bun.BaseModel `bun:"table:comments"`

	ID        string    `bun:"id,pk"`
	MangaID   string    `bun:"manga_id,notnull"`
	UserID    string    `bun:"user_id,notnull"`
	Body      string    `bun:"body,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type notificationModel struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	MangaID   string    `bun:"manga_id,notnull"`
	Message   string    `bun:"message,notnull"`
	Read      bool      `bun:"read,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

var schema = []any{
	(*mangaModel)(nil),
	(*genreModel)(nil),
	(*chapterModel)(nil),
	(*ratingModel)(nil),
	(*favoriteModel)(nil),
	(*commentModel)(nil),
	(*notificationModel)(nil),
}
