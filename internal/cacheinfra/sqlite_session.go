package cacheinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

const defaultSQLiteTimeout = 5 * time.Second

// sessionItem is a row of the session_items table.
type sessionItem struct {
	bun.BaseModel `bun:"table:session_items"`

	Key       string    `bun:"item_key,pk"`
	Value     string    `bun:"item_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLiteSession is a session store kept in a SQLite file, so it survives a
// restart of the reader the way browser session storage survives a reload.
type SQLiteSession struct {
	db      *bun.DB
	timeout time.Duration
	now     func() time.Time
}

// OpenSQLiteSession opens (or creates) the session database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLiteSession(ctx context.Context, path string) (*SQLiteSession, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &ConfigError{Field: "Path", Message: "is required"}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite session: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite session: %w", err)
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*sessionItem)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session_items: %w", err)
	}

	return &SQLiteSession{db: db, timeout: defaultSQLiteTimeout, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteSession) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetItem returns the stored value and whether it exists.
func (s *SQLiteSession) GetItem(key string) (string, bool, error) {
	ctx, cancel := s.context()
	defer cancel()

	var item sessionItem
	err := s.db.NewSelect().Model(&item).Where("item_key = ?", key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session item %q: %w", key, err)
	}
	return item.Value, true, nil
}

// SetItem inserts or replaces the value stored under key.
func (s *SQLiteSession) SetItem(key, value string) error {
	ctx, cancel := s.context()
	defer cancel()

	item := &sessionItem{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	_, err := s.db.NewInsert().
		Model(item).
		On("CONFLICT (item_key) DO UPDATE").
		Set("item_value = EXCLUDED.item_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set session item %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *SQLiteSession) RemoveItem(key string) error {
	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.db.NewDelete().Model((*sessionItem)(nil)).Where("item_key = ?", key).Exec(ctx); err != nil {
		return fmt.Errorf("remove session item %q: %w", key, err)
	}
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (s *SQLiteSession) Keys(prefix string) ([]string, error) {
	ctx, cancel := s.context()
	defer cancel()

	var keys []string
	err := s.db.NewSelect().
		Model((*sessionItem)(nil)).
		Column("item_key").
		Where("substr(item_key, 1, ?) = ?", len(prefix), prefix).
		Order("item_key ASC").
		Scan(ctx, &keys)
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	return keys, nil
}

// Clear removes every item.
func (s *SQLiteSession) Clear() error {
	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.db.NewDelete().Model((*sessionItem)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteSession) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
