package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

//go:embed seed.json
var defaultSeed []byte

// SeedManga describes one manga to insert.
type SeedManga struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Genres   []string `json:"genres"`
	Status   string   `json:"status"`
	Synopsis string   `json:"synopsis"`
	Chapters int      `json:"chapters"`
	Pages    int      `json:"pages"`
	// Ratings maps user IDs to scores.
	Ratings map[string]int `json:"ratings"`
}

// Validate checks the required fields.
func (s SeedManga) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Slug, validation.Required),
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.Status, validation.Required, validation.In("ongoing", "completed", "hiatus")),
		validation.Field(&s.Chapters, validation.Min(0)),
		validation.Field(&s.Pages, validation.Min(0)),
	)
}

// SeedData is a full catalog fixture.
type SeedData struct {
	Manga []SeedManga `json:"manga"`
	// Favorites maps user IDs to manga slugs.
	Favorites map[string][]string `json:"favorites"`
}

// DefaultSeed returns the demo catalog bundled with the reader.
func DefaultSeed() (SeedData, error) {
	var data SeedData
	if err := json.Unmarshal(defaultSeed, &data); err != nil {
		return SeedData{}, fmt.Errorf("decode default seed: %w", err)
	}
	return data, nil
}

// ReadSeed decodes a fixture file in the format of the bundled seed.
func ReadSeed(path string) (SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("read seed: %w", err)
	}
	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return data, nil
}

// Seed inserts data in one transaction. The manga listed first is the most
// recently updated.
func (c *Catalog) Seed(ctx context.Context, data SeedData) error {
	for _, m := range data.Manga {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("seed manga %q: %w", m.Slug, err)
		}
	}

	now := c.clock.Now().UTC()
	ids := map[string]string{}

	err := c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, sm := range data.Manga {
			id := uuid.NewString()
			ids[sm.Slug] = id
			updated := now.Add(-time.Duration(i) * time.Hour)

			m := &mangaModel{
				ID:            id,
				Slug:          sm.Slug,
				Title:         sm.Title,
				Authors:       strings.Join(sm.Authors, ", "),
				Status:        sm.Status,
				Synopsis:      sm.Synopsis,
				LatestChapter: sm.Chapters,
				CreatedAt:     updated,
				UpdatedAt:     updated,
			}
			if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
				return fmt.Errorf("insert %q: %w", sm.Slug, err)
			}

			if len(sm.Genres) > 0 {
				genres := make([]genreModel, 0, len(sm.Genres))
				for _, g := range sm.Genres {
					genres = append(genres, genreModel{MangaID: id, Genre: strings.ToLower(g)})
				}
				if _, err := tx.NewInsert().Model(&genres).Exec(ctx); err != nil {
					return fmt.Errorf("insert genres of %q: %w", sm.Slug, err)
				}
			}

			if sm.Chapters > 0 {
				pages := sm.Pages
				if pages <= 0 {
					pages = 18
				}
				chapters := make([]chapterModel, 0, sm.Chapters)
				for n := 1; n <= sm.Chapters; n++ {
					chapters = append(chapters, chapterModel{
						MangaID:     id,
						Number:      n,
						Title:       fmt.Sprintf("Chapter %d", n),
						PageCount:   pages,
						PublishedAt: updated.AddDate(0, 0, n-sm.Chapters),
					})
				}
				if _, err := tx.NewInsert().Model(&chapters).Exec(ctx); err != nil {
					return fmt.Errorf("insert chapters of %q: %w", sm.Slug, err)
				}
			}

			if len(sm.Ratings) > 0 {
				ratings := make([]ratingModel, 0, len(sm.Ratings))
				for userID, score := range sm.Ratings {
					ratings = append(ratings, ratingModel{MangaID: id, UserID: userID, Score: score, CreatedAt: now})
				}
				if _, err := tx.NewInsert().Model(&ratings).Exec(ctx); err != nil {
					return fmt.Errorf("insert ratings of %q: %w", sm.Slug, err)
				}
				if err := c.refreshRating(ctx, tx, id); err != nil {
					return fmt.Errorf("rating of %q: %w", sm.Slug, err)
				}
			}
		}

		for userID, slugs := range data.Favorites {
			for _, slug := range slugs {
				id, ok := ids[slug]
				if !ok {
					return fmt.Errorf("favorite of %q: manga %q: %w", userID, slug, ErrNotFound)
				}
				fav := &favoriteModel{UserID: userID, MangaID: id, CreatedAt: now}
				if _, err := tx.NewInsert().Model(fav).Exec(ctx); err != nil {
					return fmt.Errorf("insert favorite: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Debug("catalog seeded", "manga", len(data.Manga))
	return nil
}
