// Package catalog is the SQLite-backed data source of the reader. It
// implements routes.DataSource on top of bun.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-freshcache/pkg/clock"
	"github.com/goliatone/go-freshcache/routes"
)

var _ routes.DataSource = (*Catalog)(nil)

// ErrNotFound is returned when a manga or chapter does not exist.
var ErrNotFound = errors.New("not found")

const DefaultPageSize = 12

// Options configures a Catalog.
type Options struct {
	// PageSize is the number of rows per homepage and catalog page. Default: 12
	PageSize int
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Catalog serves the reader's data from SQLite.
type Catalog struct {
	db       *bun.DB
	pageSize int
	clock    clock.Clock
	logger   *slog.Logger
}

// Open opens (or creates) the catalog database at path and creates any
// missing tables. Use ":memory:" for a throwaway catalog.
func Open(ctx context.Context, path string, opts Options) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("catalog path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	c := &Catalog{
		db:       bun.NewDB(sqlDB, sqlitedialect.New()),
		pageSize: opts.PageSize,
		clock:    clock.OrReal(opts.Clock),
		logger:   opts.Logger,
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	if err := c.migrate(ctx); err != nil {
		_ = c.db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the bun handle for tooling.
func (c *Catalog) DB() *bun.DB {
	return c.db
}

func (c *Catalog) migrate(ctx context.Context) error {
	for _, model := range schema {
		if _, err := c.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// Empty reports whether the catalog holds no manga yet.
func (c *Catalog) Empty(ctx context.Context) (bool, error) {
	n, err := c.db.NewSelect().Model((*mangaModel)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count manga: %w", err)
	}
	return n == 0, nil
}

func (c *Catalog) mangaBySlug(ctx context.Context, db bun.IDB, slug string) (mangaModel, error) {
	var m mangaModel
	err := db.NewSelect().Model(&m).Where("slug = ?", slug).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return m, fmt.Errorf("manga %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return m, fmt.Errorf("load manga %q: %w", slug, err)
	}
	return m, nil
}

func summary(m mangaModel) routes.MangaSummary {
	return routes.MangaSummary{
		ID:            m.ID,
		Slug:          m.Slug,
		Title:         m.Title,
		Rating:        m.RatingAvg,
		LatestChapter: m.LatestChapter,
		UpdatedAt:     m.UpdatedAt,
	}
}

func summaries(models []mangaModel) []routes.MangaSummary {
	out := make([]routes.MangaSummary, 0, len(models))
	for _, m := range models {
		out = append(out, summary(m))
	}
	return out
}
