package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goliatone/go-freshcache/hybridcache"
	"github.com/goliatone/go-freshcache/internal/catalog"
	"github.com/goliatone/go-freshcache/internal/config"
	"github.com/goliatone/go-freshcache/pkg/di"
)

// application bundles what a command needs and releases it in Close.
type application struct {
	logger    *slog.Logger
	catalog   *catalog.Catalog
	container *di.Container
	closers   []func() error
}

// newLogger writes text logs to path. Without a path logs go to stderr when
// verbose and nowhere otherwise.
func newLogger(path string, verbose bool) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if path == "" {
		if !verbose {
			return slog.New(slog.DiscardHandler), io.NopCloser(nil), nil
		}
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

// openCatalog opens the catalog database, seeding the demo data into an
// empty one.
func openCatalog(ctx context.Context, c config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if dir := parentDir(c.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	cat, err := catalog.Open(ctx, c.DBPath, catalog.Options{Logger: logger.With("component", "catalog")})
	if err != nil {
		return nil, err
	}

	empty, err := cat.Empty(ctx)
	if err != nil {
		_ = cat.Close()
		return nil, err
	}
	if empty {
		seed, err := catalog.DefaultSeed()
		if err == nil {
			err = cat.Seed(ctx, seed)
		}
		if err != nil {
			_ = cat.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("seeded empty catalog", "db", c.DBPath)
	}
	return cat, nil
}

// parentDir returns the directory of a database path, or "" for an
// in-memory database.
func parentDir(path string) string {
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Dir(path)
}

func openSession(ctx context.Context, c config.Config) (hybridcache.SessionStorage, func() error, error) {
	if c.SessionPath == "" {
		session, err := hybridcache.NewMemorySession(hybridcache.DefaultSessionConfig())
		if err != nil {
			return nil, nil, err
		}
		return session, func() error { return nil }, nil
	}
	session, err := hybridcache.OpenSQLiteSession(ctx, c.SessionPath)
	if err != nil {
		return nil, nil, err
	}
	return session, session.Close, nil
}

func openApp(ctx context.Context, c config.Config) (*application, error) {
	logger, logCloser, err := newLogger(c.LogFile, c.Verbose)
	if err != nil {
		return nil, err
	}
	app := &application{logger: logger, closers: []func() error{logCloser.Close}}

	shutdown, err := setupTracing(ctx, c.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		app.closers = append(app.closers, func() error { return shutdown(context.Background()) })
	}

	app.catalog, err = openCatalog(ctx, c, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, app.catalog.Close)

	session, closeSession, err := openSession(ctx, c)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeSession)

	app.container, err = di.NewContainer(c.Container(), di.Dependencies{
		Source:  app.catalog,
		Session: session,
		Logger:  logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	if c.User != "" {
		app.container.SignIn(c.User)
	}
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() error {
	if a.container != nil {
		a.container.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
