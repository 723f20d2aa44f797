// Package application assembles the runtime shared by the HTTP server and
// the admin CLI: the record store, tracing, the event publisher and the
// inventory service.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/storagetracker/internal/config"
	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/events"
	"github.com/JonMunkholm/storagetracker/internal/obs"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config  *config.Config
	Store   store.Store
	Service *core.Service

	closers []func(context.Context) error
}

// New connects everything cfg enables. Tracing and events are optional and
// stay off when their endpoints are not configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.Tracing.Environment)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app.closers = append(app.closers, shutdownTracer)

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Store = st
	app.closers = append(app.closers, func(context.Context) error { return st.Close() })

	opts := []core.Option{
		core.WithLimiter(core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
	}
	if cfg.Events.URL != "" {
		pub, err := events.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("connect events: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return pub.Close() })
		opts = append(opts, core.WithEvents(pub))
		slog.Info("publishing import events", "exchange", cfg.Events.Exchange)
	}

	app.Service = core.NewService(st, opts...)
	return app, nil
}

// OpenStore opens the configured record store backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case config.BackendMemory:
		m, err := store.NewMemory(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		slog.Info("using memory store", "snapshot", cfg.Store.SnapshotPath)
		return m, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pg, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func openPool(ctx context.Context, dbc config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(dbc.MaxConns)
	poolConfig.MinConns = int32(dbc.MinConns)
	poolConfig.MaxConnLifetime = dbc.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbc.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(dbc.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// Close releases everything New opened, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
