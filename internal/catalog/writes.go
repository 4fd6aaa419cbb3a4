package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-freshcache/routes"
)

// ToggleFavorite flips the favorite flag of slug for userID.
func (c *Catalog) ToggleFavorite(ctx context.Context, userID, slug string) (bool, error) {
	if err := validation.Validate(userID, validation.Required); err != nil {
		return false, fmt.Errorf("user: %w", err)
	}

	var favorite bool
	err := c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := c.mangaBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*favoriteModel)(nil)).
			Where("user_id = ? AND manga_id = ?", userID, m.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		favorite = true
		_, err = tx.NewInsert().
			Model(&favoriteModel{UserID: userID, MangaID: m.ID, CreatedAt: c.clock.Now().UTC()}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("toggle favorite %q: %w", slug, err)
	}
	return favorite, nil
}

// PostComment adds a comment of up to 2000 characters.
func (c *Catalog) PostComment(ctx context.Context, userID, slug, body string) (routes.Comment, error) {
	body = strings.TrimSpace(body)
	err := validation.Errors{
		"user": validation.Validate(userID, validation.Required),
		"body": validation.Validate(body, validation.Required, validation.RuneLength(1, 2000)),
	}.Filter()
	if err != nil {
		return routes.Comment{}, fmt.Errorf("post comment: %w", err)
	}

	m, err := c.mangaBySlug(ctx, c.db, slug)
	if err != nil {
		return routes.Comment{}, err
	}

	cm := &commentModel{
		ID:        uuid.NewString(),
		MangaID:   m.ID,
		UserID:    userID,
		Body:      body,
		CreatedAt: c.clock.Now().UTC(),
	}
	if _, err := c.db.NewInsert().Model(cm).Exec(ctx); err != nil {
		return routes.Comment{}, fmt.Errorf("post comment on %q: %w", slug, err)
	}
	return routes.Comment{
		ID:        cm.ID,
		MangaSlug: slug,
		UserID:    userID,
		Body:      body,
		CreatedAt: cm.CreatedAt,
	}, nil
}

// RateManga records or replaces the score of userID and refreshes the
// manga's average.
func (c *Catalog) RateManga(ctx context.Context, userID, slug string, score int) error {
	err := validation.Errors{
		"user":  validation.Validate(userID, validation.Required),
		"score": validation.Validate(score, validation.Required, validation.Min(1), validation.Max(10)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("rate manga: %w", err)
	}

	err = c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := c.mangaBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().
			Model(&ratingModel{MangaID: m.ID, UserID: userID, Score: score, CreatedAt: c.clock.Now().UTC()}).
			On("CONFLICT (manga_id, user_id) DO UPDATE").
			Set("score = EXCLUDED.score").
			Set("created_at = EXCLUDED.created_at").
			Exec(ctx)
		if err != nil {
			return err
		}
		return c.refreshRating(ctx, tx, m.ID)
	})
	if err != nil {
		return fmt.Errorf("rate %q: %w", slug, err)
	}
	return nil
}

func (c *Catalog) refreshRating(ctx context.Context, db bun.IDB, mangaID string) error {
	_, err := db.NewUpdate().
		Model((*mangaModel)(nil)).
		Set("rating_avg = (SELECT COALESCE(AVG(score), 0) FROM ratings WHERE manga_id = ?)", mangaID).
		Set("rating_count = (SELECT COUNT(*) FROM ratings WHERE manga_id = ?)", mangaID).
		Where("id = ?", mangaID).
		Exec(ctx)
	return err
}

// MarkNotificationsRead marks the whole inbox of userID as read.
func (c *Catalog) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := c.db.NewUpdate().
		Model((*notificationModel)(nil)).
		Set("read = ?", true).
		Where("user_id = ?", userID).
		Where("read = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark notifications of %q read: %w", userID, err)
	}
	return nil
}

// PublishChapter adds the next chapter of slug and notifies every reader
// who marked it as favorite. It returns the new chapter number.
func (c *Catalog) PublishChapter(ctx context.Context, slug, title string, pageCount int) (int, error) {
	if err := validation.Validate(pageCount, validation.Required, validation.Min(1)); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}

	var number int
	err := c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		m, err := c.mangaBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}
		now := c.clock.Now().UTC()
		number = m.LatestChapter + 1

		ch := &chapterModel{MangaID: m.ID, Number: number, Title: title, PageCount: pageCount, PublishedAt: now}
		if _, err := tx.NewInsert().Model(ch).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewUpdate().
			Model((*mangaModel)(nil)).
			Set("latest_chapter = ?", number).
			Set("updated_at = ?", now).
			Where("id = ?", m.ID).
			Exec(ctx)
		if err != nil {
			return err
		}

		var readers []string
		err = tx.NewSelect().
			Model((*favoriteModel)(nil)).
			Column("user_id").
			Where("manga_id = ?", m.ID).
			Scan(ctx, &readers)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if len(readers) == 0 {
			return nil
		}

		notes := make([]notificationModel, 0, len(readers))
		for _, userID := range readers {
			notes = append(notes, notificationModel{
				ID:        uuid.NewString(),
				UserID:    userID,
				MangaID:   m.ID,
				Message:   fmt.Sprintf("%s: chapter %d is out", m.Title, number),
				CreatedAt: now,
			})
		}
		_, err = tx.NewInsert().Model(&notes).Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("publish chapter of %q: %w", slug, err)
	}
	c.logger.Debug("chapter published", "slug", slug, "number", number)
	return number, nil
}
