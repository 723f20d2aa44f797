package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/storagetracker/internal/application"
	"github.com/JonMunkholm/storagetracker/internal/auth"
	"github.com/JonMunkholm/storagetracker/internal/config"
	"github.com/JonMunkholm/storagetracker/internal/core"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"events_enabled", cfg.Events.URL != "",
		"tracing_enabled", cfg.Tracing.Endpoint != "",
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := auth.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieSecure)
	var provider auth.Provider
	if cfg.Auth.GoogleEnabled() {
		provider = auth.NewGoogle(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.RedirectURL)
	} else {
		slog.Warn("google sign-in not configured; only existing session tokens are accepted")
	}

	server := web.NewServer(cfg, app.Service, sessions, provider)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Service.StartHistoryPruner(gctx, core.HistoryRetention{
			MaxAge:        cfg.Upload.HistoryRetention,
			CheckInterval: cfg.Upload.HistoryPruneInterval,
		})
		return nil
	})
	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}

		limiter := app.Service.Limiter()
		if active := limiter.Active(); active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		return app.Close(shutdownCtx)
	})

	return g.Wait()
}
