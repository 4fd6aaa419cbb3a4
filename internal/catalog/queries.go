package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-freshcache/routes"
)

const (
	featuredCount = 3
	rankingsLimit = 10
	searchLimit   = 20
	commentsLimit = 20
)

// Homepage returns one page of recently updated manga. The first page also
// carries the top rated titles.
func (c *Catalog) Homepage(ctx context.Context, page int) (routes.Homepage, error) {
	if page < 1 {
		page = 1
	}

	var latest []mangaModel
	total, err := c.db.NewSelect().
		Model(&latest).
		Order("updated_at DESC", "title ASC").
		Limit(c.pageSize).
		Offset((page - 1) * c.pageSize).
		ScanAndCount(ctx)
	if err != nil {
		return routes.Homepage{}, fmt.Errorf("homepage %d: %w", page, err)
	}

	home := routes.Homepage{
		Page:       page,
		TotalPages: (total + c.pageSize - 1) / c.pageSize,
		Latest:     summaries(latest),
	}

	if page == 1 {
		var featured []mangaModel
		err := c.db.NewSelect().
			Model(&featured).
			Where("rating_count > 0").
			Order("rating_avg DESC", "rating_count DESC").
			Limit(featuredCount).
			Scan(ctx)
		if err != nil {
			return routes.Homepage{}, fmt.Errorf("homepage featured: %w", err)
		}
		home.Featured = summaries(featured)
	}
	return home, nil
}

// Manga returns the manga page for slug.
func (c *Catalog) Manga(ctx context.Context, slug string) (routes.MangaDetail, error) {
	m, err := c.mangaBySlug(ctx, c.db, slug)
	if err != nil {
		return routes.MangaDetail{}, err
	}

	detail := routes.MangaDetail{
		MangaSummary: summary(m),
		Status:       m.Status,
		Synopsis:     m.Synopsis,
		RatingCount:  m.RatingCount,
	}
	if m.Authors != "" {
		detail.Authors = strings.Split(m.Authors, ", ")
	}

	if detail.Genres, err = c.genres(ctx, m.ID); err != nil {
		return routes.MangaDetail{}, err
	}

	var chapters []chapterModel
	if err := c.db.NewSelect().Model(&chapters).Where("manga_id = ?", m.ID).Order("number ASC").Scan(ctx); err != nil {
		return routes.MangaDetail{}, fmt.Errorf("chapters of %q: %w", slug, err)
	}
	for _, ch := range chapters {
		detail.Chapters = append(detail.Chapters, routes.ChapterRef{
			Number:      ch.Number,
			Title:       ch.Title,
			PublishedAt: ch.PublishedAt,
		})
	}

	var comments []commentModel
	err = c.db.NewSelect().
		Model(&comments).
		Where("manga_id = ?", m.ID).
		Order("created_at DESC").
		Limit(commentsLimit).
		Scan(ctx)
	if err != nil {
		return routes.MangaDetail{}, fmt.Errorf("comments of %q: %w", slug, err)
	}
	for _, cm := range comments {
		detail.Comments = append(detail.Comments, routes.Comment{
			ID:        cm.ID,
			MangaSlug: slug,
			UserID:    cm.UserID,
			Body:      cm.Body,
			CreatedAt: cm.CreatedAt,
		})
	}

	detail.Favorites, err = c.db.NewSelect().Model((*favoriteModel)(nil)).Where("manga_id = ?", m.ID).Count(ctx)
	if err != nil {
		return routes.MangaDetail{}, fmt.Errorf("favorites of %q: %w", slug, err)
	}
	return detail, nil
}

func (c *Catalog) genres(ctx context.Context, mangaID string) ([]string, error) {
	var genres []string
	err := c.db.NewSelect().
		Model((*genreModel)(nil)).
		Column("genre").
		Where("manga_id = ?", mangaID).
		Order("genre ASC").
		Scan(ctx, &genres)
	if err != nil {
		return nil, fmt.Errorf("genres of %s: %w", mangaID, err)
	}
	return genres, nil
}

// Chapter returns the reading view of a chapter.
func (c *Catalog) Chapter(ctx context.Context, slug string, number int) (routes.Chapter, error) {
	m, err := c.mangaBySlug(ctx, c.db, slug)
	if err != nil {
		return routes.Chapter{}, err
	}

	var ch chapterModel
	err = c.db.NewSelect().Model(&ch).Where("manga_id = ? AND number = ?", m.ID, number).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return routes.Chapter{}, fmt.Errorf("chapter %d of %q: %w", number, slug, ErrNotFound)
	}
	if err != nil {
		return routes.Chapter{}, fmt.Errorf("chapter %d of %q: %w", number, slug, err)
	}

	out := routes.Chapter{
		MangaSlug:  slug,
		MangaTitle: m.Title,
		Number:     ch.Number,
		Title:      ch.Title,
		Pages:      make([]string, 0, ch.PageCount),
	}
	for i := 1; i <= ch.PageCount; i++ {
		out.Pages = append(out.Pages, fmt.Sprintf("%s/%d/%03d.webp", slug, ch.Number, i))
	}

	if out.Prev, err = c.neighbour(ctx, m.ID, "number < ?", "number DESC", number); err != nil {
		return routes.Chapter{}, err
	}
	if out.Next, err = c.neighbour(ctx, m.ID, "number > ?", "number ASC", number); err != nil {
		return routes.Chapter{}, err
	}
	return out, nil
}

// neighbour returns the closest chapter number matching cond, or zero.
func (c *Catalog) neighbour(ctx context.Context, mangaID, cond, order string, number int) (int, error) {
	var numbers []int
	err := c.db.NewSelect().
		Model((*chapterModel)(nil)).
		Column("number").
		Where("manga_id = ?", mangaID).
		Where(cond, number).
		Order(order).
		Limit(1).
		Scan(ctx, &numbers)
	if err != nil {
		return 0, fmt.Errorf("neighbour of chapter %d: %w", number, err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	return numbers[0], nil
}

// Catalog returns one filtered page of the catalog.
func (c *Catalog) Catalog(ctx context.Context, q routes.CatalogQuery) (routes.CatalogPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	var models []mangaModel
	query := c.db.NewSelect().Model(&models)
	if q.Genre != "" {
		query = query.Where("id IN (SELECT manga_id FROM manga_genres WHERE genre = ?)", q.Genre)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	switch q.Sort {
	case "rating":
		query = query.Order("rating_avg DESC", "title ASC")
	case "title":
		query = query.Order("title ASC")
	default:
		query = query.Order("updated_at DESC", "title ASC")
	}

	total, err := query.Limit(c.pageSize).Offset((q.Page - 1) * c.pageSize).ScanAndCount(ctx)
	if err != nil {
		return routes.CatalogPage{}, fmt.Errorf("catalog %+v: %w", q, err)
	}
	return routes.CatalogPage{Query: q, Items: summaries(models), Total: total}, nil
}

// Search matches titles containing every word of query.
func (c *Catalog) Search(ctx context.Context, query string) (routes.SearchResult, error) {
	result := routes.SearchResult{Query: query}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return result, nil
	}

	var models []mangaModel
	q := c.db.NewSelect().Model(&models)
	for _, w := range words {
		q = q.Where("lower(title) LIKE ? ESCAPE '!'", "%"+escapeLike(w)+"%")
	}
	if err := q.Order("title ASC").Limit(searchLimit).Scan(ctx); err != nil {
		return result, fmt.Errorf("search %q: %w", query, err)
	}
	result.Items = summaries(models)
	return result, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}

type rankRow struct {
	MangaID string  `bun:"manga_id"`
	Score   float64 `bun:"score"`
}

// Rankings returns the best rated manga of a period, scored by the ratings
// given during that period.
func (c *Catalog) Rankings(ctx context.Context, period string) (routes.Rankings, error) {
	out := routes.Rankings{Period: period}

	since, err := c.periodStart(period)
	if err != nil {
		return out, err
	}

	var rows []rankRow
	q := c.db.NewSelect().
		TableExpr("ratings AS r").
		ColumnExpr("r.manga_id AS manga_id").
		ColumnExpr("AVG(r.score) AS score").
		GroupExpr("r.manga_id").
		OrderExpr("score DESC, COUNT(*) DESC, r.manga_id ASC").
		Limit(rankingsLimit)
	if !since.IsZero() {
		q = q.Where("r.created_at >= ?", since)
	}
	if err := q.Scan(ctx, &rows); err != nil {
		return out, fmt.Errorf("rankings %q: %w", period, err)
	}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.MangaID)
	}
	var models []mangaModel
	if err := c.db.NewSelect().Model(&models).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return out, fmt.Errorf("rankings %q: %w", period, err)
	}
	byID := make(map[string]mangaModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}

	for _, r := range rows {
		m, ok := byID[r.MangaID]
		if !ok {
			continue
		}
		s := summary(m)
		s.Rating = r.Score
		out.Items = append(out.Items, s)
	}
	return out, nil
}

func (c *Catalog) periodStart(period string) (time.Time, error) {
	now := c.clock.Now().UTC()
	switch period {
	case routes.PeriodDaily:
		return now.Add(-24 * time.Hour), nil
	case routes.PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour), nil
	case routes.PeriodMonthly:
		return now.AddDate(0, -1, 0), nil
	case routes.PeriodAll, "":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("rankings period %q: %w", period, ErrNotFound)
	}
}

// Favorites lists the manga userID marked as favorite.
func (c *Catalog) Favorites(ctx context.Context, userID string) (routes.Favorites, error) {
	var models []mangaModel
	err := c.db.NewSelect().
		Model(&models).
		Where("id IN (SELECT manga_id FROM favorites WHERE user_id = ?)", userID).
		Order("title ASC").
		Scan(ctx)
	if err != nil {
		return routes.Favorites{}, fmt.Errorf("favorites of %q: %w", userID, err)
	}
	return routes.Favorites{UserID: userID, Items: summaries(models)}, nil
}

type notificationRow struct {
	ID        string    `bun:"id"`
	Message   string    `bun:"message"`
	Read      bool      `bun:"read"`
	CreatedAt time.Time `bun:"created_at"`
	Slug      string    `bun:"slug"`
}

// Notifications returns the inbox of userID, newest first.
func (c *Catalog) Notifications(ctx context.Context, userID string) (routes.Notifications, error) {
	var rows []notificationRow
	err := c.db.NewSelect().
		TableExpr("notifications AS n").
		ColumnExpr("n.id, n.message, n.read, n.created_at").
		ColumnExpr("m.slug AS slug").
		Join("JOIN manga AS m ON m.id = n.manga_id").
		Where("n.user_id = ?", userID).
		OrderExpr("n.created_at DESC").
		Scan(ctx, &rows)
	if err != nil {
		return routes.Notifications{}, fmt.Errorf("notifications of %q: %w", userID, err)
	}

	out := routes.Notifications{UserID: userID}
	for _, r := range rows {
		out.Items = append(out.Items, routes.Notification{
			ID:        r.ID,
			MangaSlug: r.Slug,
			Message:   r.Message,
			Read:      r.Read,
			CreatedAt: r.CreatedAt,
		})
		if !r.Read {
			out.Unread++
		}
	}
	return out, nil
}
