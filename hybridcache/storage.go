package hybridcache

import (
	"context"
	"errors"

	"github.com/goliatone/go-freshcache/internal/cacheinfra"
)

// ErrStorageUnavailable marks a failed session read or write. It is only
// ever logged; callers of Hybrid never see it.
var ErrStorageUnavailable = errors.New("session storage unavailable")

// ErrQuotaExceeded is returned by the in-process session when a record is
// larger than its per-item quota.
var ErrQuotaExceeded = cacheinfra.ErrQuotaExceeded

// SessionStorage is a string key/value store scoped to one reader session.
type SessionStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys(prefix string) ([]string, error)
	Clear() error
}

type (
	// SessionConfig configures the in-process session.
	SessionConfig = cacheinfra.MemorySessionConfig
	// MemorySession is the sturdyc-backed in-process session.
	MemorySession = cacheinfra.MemorySession
	// SQLiteSession is the session kept in a SQLite file.
	SQLiteSession = cacheinfra.SQLiteSession
)

// DefaultSessionConfig returns the default in-process session configuration.
func DefaultSessionConfig() SessionConfig {
	return cacheinfra.DefaultMemorySessionConfig()
}

// NewMemorySession creates an in-process session.
func NewMemorySession(cfg SessionConfig) (*MemorySession, error) {
	return cacheinfra.NewMemorySession(cfg)
}

// OpenSQLiteSession opens a session stored at path; it survives restarts.
func OpenSQLiteSession(ctx context.Context, path string) (*SQLiteSession, error) {
	return cacheinfra.OpenSQLiteSession(ctx, path)
}

var (
	_ SessionStorage = (*cacheinfra.MemorySession)(nil)
	_ SessionStorage = (*cacheinfra.SQLiteSession)(nil)
)
