package core

// scheduler.go removes expired import history in the background.
//
// The pruner is long-running and stops with its context. It logs progress
// and errors but never fails the application when a pass fails.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/storagetracker/internal/store"
)

// HistoryRetention configures StartHistoryPruner.
type HistoryRetention struct {
	MaxAge        time.Duration // Runs finished longer ago are removed
	CheckInterval time.Duration // How often to look
}

// StartHistoryPruner removes import records older than cfg.MaxAge. It runs
// immediately, then every CheckInterval, until ctx is cancelled. A zero
// MaxAge disables it.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg HistoryRetention) {
	if cfg.MaxAge <= 0 || cfg.CheckInterval <= 0 {
		return
	}
	slog.Info("history pruner started",
		"max_age", cfg.MaxAge.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	s.runPrune(ctx, cfg.MaxAge)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.runPrune(ctx, cfg.MaxAge)
		}
	}
}

func (s *Service) runPrune(ctx context.Context, maxAge time.Duration) {
	start := time.Now()
	removed, err := s.PruneHistory(ctx, start.Add(-maxAge))
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}
	slog.Info("history pruned",
		"records_removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PruneHistory removes every import record, of any user, finished before
// cutoff. Records without a readable finish time are kept.
func (s *Service) PruneHistory(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := store.Collect(s.store.Find(ctx, store.Imports, nil))
	if err != nil {
		return 0, fmt.Errorf("load import history: %w", err)
	}

	removed := 0
	for _, doc := range docs {
		finished, err := time.Parse(time.RFC3339Nano, doc.String(fieldFinishedAt))
		if err != nil || !finished.Before(cutoff) {
			continue
		}
		ok, err := s.store.Delete(ctx, store.Imports, doc.ID, nil)
		if err != nil {
			return removed, fmt.Errorf("delete import %s: %w", doc.ID, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}
