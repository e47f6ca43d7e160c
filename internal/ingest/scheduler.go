package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Syncer runs one synchronization pass.
type Syncer interface {
	SyncMany(ctx context.Context, trigger string) (Run, error)
}

// Scheduler runs a Syncer every Interval for the lifetime of ctx.
type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval time.Duration, runOnStart bool, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{syncer: syncer, interval: interval, runOnStart: runOnStart, logger: logger}
}

// Run blocks until ctx is cancelled. Errors and panics from a pass are
// logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "run_on_start", s.runOnStart)
	if !s.runOnStart && !s.sleep(ctx) {
		return nil
	}
	for {
		if ctx.Err() != nil {
			break
		}
		s.tick(ctx)
		if !s.sleep(ctx) {
			break
		}
	}
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("scheduled sync panicked", "panic", p)
		}
	}()
	if _, err := s.syncer.SyncMany(ctx, TriggerScheduled); err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
	}
}

func (s *Scheduler) sleep(ctx context.Context) bool {
	t := time.NewTimer(s.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
