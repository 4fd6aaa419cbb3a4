package routes

import "time"

// MangaSummary is the list-row view of a manga.
type MangaSummary struct {
	ID            string    `json:"id" msgpack:"id"`
	Slug          string    `json:"slug" msgpack:"slug"`
	Title         string    `json:"title" msgpack:"title"`
	Rating        float64   `json:"rating" msgpack:"rating"`
	LatestChapter int       `json:"latestChapter" msgpack:"latestChapter"`
	UpdatedAt     time.Time `json:"updatedAt" msgpack:"updatedAt"`
}

// Homepage is one page of the reader's front page.
type Homepage struct {
	Page       int            `json:"page" msgpack:"page"`
	TotalPages int            `json:"totalPages" msgpack:"totalPages"`
	Featured   []MangaSummary `json:"featured" msgpack:"featured"`
	Latest     []MangaSummary `json:"latest" msgpack:"latest"`
}

// ChapterRef lists a chapter on the manga page.
type ChapterRef struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Comment is a reader comment on a manga.
type Comment struct {
	ID        string    `json:"id"`
	MangaSlug string    `json:"mangaSlug"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// MangaDetail is the manga page.
type MangaDetail struct {
	MangaSummary
	Authors     []string     `json:"authors"`
	Genres      []string     `json:"genres"`
	Status      string       `json:"status"`
	Synopsis    string       `json:"synopsis"`
	RatingCount int          `json:"ratingCount"`
	Favorites   int          `json:"favorites"`
	Chapters    []ChapterRef `json:"chapters"`
	Comments    []Comment    `json:"comments"`
}

// Chapter is the reading view of one chapter.
type Chapter struct {
	MangaSlug  string   `json:"mangaSlug"`
	MangaTitle string   `json:"mangaTitle"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	Pages      []string `json:"pages"`
	// Prev and Next are zero at the ends of the series.
	Prev int `json:"prev"`
	Next int `json:"next"`
}

// CatalogQuery filters the catalog. Empty fields are unset.
type CatalogQuery struct {
	Genre  string `json:"genre"`
	Status string `json:"status"`
	Sort   string `json:"sort"`
	Page   int    `json:"page"`
}

// CatalogPage is one page of catalog results.
type CatalogPage struct {
	Query CatalogQuery   `json:"query"`
	Items []MangaSummary `json:"items"`
	Total int            `json:"total"`
}

// SearchResult holds title matches for a query.
type SearchResult struct {
	Query string         `json:"query"`
	Items []MangaSummary `json:"items"`
}

// Rankings is the top-rated list for a period.
type Rankings struct {
	Period string         `json:"period"`
	Items  []MangaSummary `json:"items"`
}

// Favorites lists a user's favorite manga.
type Favorites struct {
	UserID string         `json:"userId"`
	Items  []MangaSummary `json:"items"`
}

// Notification tells a user about a new chapter.
type Notification struct {
	ID        string    `json:"id"`
	MangaSlug string    `json:"mangaSlug"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifications is a user's notification inbox.
type Notifications struct {
	UserID string         `json:"userId"`
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}
