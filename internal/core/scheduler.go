package core

// scheduler.go provides background maintenance for the output directory.
//
// The retention sweep runs periodically to:
//  1. Remove artifacts older than the retention window from the output dir
//  2. Evict submissions not touched within the window from memory
//
// The scheduler is long-running and stops with its context. Failed removals
// are logged and retried on the next cycle.

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// RetentionConfig holds configuration for the retention sweep.
type RetentionConfig struct {
	MaxAge   time.Duration // Artifacts and submissions older than this are removed
	Interval time.Duration // How often to run (default: 1h)
}

// SweepResult counts what one retention cycle removed.
type SweepResult struct {
	Artifacts   int
	Submissions int
}

// StartRetentionSweeper runs the retention sweep immediately, then every
// Interval, until ctx is cancelled. A zero MaxAge disables it.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		return
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	slog.Info("retention sweeper started", "max_age", cfg.MaxAge, "interval", cfg.Interval)

	s.runSweep(cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(cfg.MaxAge)
		}
	}
}

func (s *Service) runSweep(maxAge time.Duration) {
	start := time.Now()
	res, err := s.Sweep(start.Add(-maxAge))
	if err != nil {
		slog.Error("retention sweep failed", "error", err)
		return
	}
	slog.Info("retention sweep completed",
		"artifacts_removed", res.Artifacts,
		"submissions_evicted", res.Submissions,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Sweep removes artifacts last modified before cutoff and evicts
// submissions last updated before it.
func (s *Service) Sweep(cutoff time.Time) (SweepResult, error) {
	var res SweepResult

	artifacts, err := s.matcher.Scanner.Scan()
	if err != nil {
		return res, err
	}
	for _, a := range artifacts {
		info, err := os.Stat(a.Path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(a.Path); err != nil {
			slog.Warn("remove expired artifact", "path", a.Path, "error", err)
			continue
		}
		res.Artifacts++
	}

	res.Submissions = s.submissions.evictBefore(cutoff)
	return res, nil
}
