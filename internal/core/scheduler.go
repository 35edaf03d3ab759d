package core

// scheduler.go runs periodic reference refreshes.
//
// Each tick calls Service.Reload. A failed reload is logged and the
// previously published table keeps serving; the scheduler never stops on
// error, only when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// RefreshConfig holds configuration for the refresh scheduler.
type RefreshConfig struct {
	Interval   time.Duration // How often to reload (0 disables the scheduler)
	RunOnStart bool          // Reload immediately before the first tick
}

// StartRefreshScheduler blocks, reloading reference data every Interval until
// ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartRefreshScheduler(ctx context.Context, cfg RefreshConfig) {
	if cfg.Interval <= 0 {
		slog.Debug("refresh scheduler disabled")
		return
	}

	slog.Info("refresh scheduler started", "interval", cfg.Interval.String())

	if cfg.RunOnStart {
		s.runRefreshJob(ctx)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefreshJob(ctx)
		}
	}
}

// runRefreshJob performs one reload cycle. Errors are already logged by Reload.
func (s *Service) runRefreshJob(ctx context.Context) {
	slog.Debug("refresh job started")
	if err := s.Reload(ctx); err != nil {
		return
	}
	slog.Debug("refresh job completed")
}
