// Package jobs runs the server's periodic housekeeping.
package jobs

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron"
)

// LabelReconciler fails labels left pending by a crash.
type LabelReconciler interface {
	ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NotificationPruner drops old read notifications.
type NotificationPruner interface {
	PruneRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Config struct {
	LabelSchedule         string
	LabelPendingTimeout   time.Duration
	PruneSchedule         string
	NotificationRetention time.Duration
}

func DefaultConfig() Config {
	return Config{
		LabelSchedule:         "@every 5m",
		LabelPendingTimeout:   15 * time.Minute,
		PruneSchedule:         "@daily",
		NotificationRetention: 90 * 24 * time.Hour,
	}
}

// Scheduler wraps a cron instance.
type Scheduler struct {
	cron *cron.Cron
}

// Start registers the jobs and starts the scheduler.
func Start(cfg Config, labels LabelReconciler, notes NotificationPruner, logger echo.Logger) (*Scheduler, error) {
	c := cron.New()
	if err := c.AddFunc(cfg.LabelSchedule, func() {
		ReconcileLabels(context.Background(), labels, cfg.LabelPendingTimeout, logger)
	}); err != nil {
		return nil, err
	}
	if err := c.AddFunc(cfg.PruneSchedule, func() {
		PruneNotifications(context.Background(), notes, cfg.NotificationRetention, logger)
	}); err != nil {
		return nil, err
	}
	c.Start()
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Stop() {
	if s != nil {
		s.cron.Stop()
	}
}

func ReconcileLabels(ctx context.Context, labels LabelReconciler, timeout time.Duration, logger echo.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := labels.ExpirePending(ctx, timeout)
	if err != nil {
		logger.Errorf("jobs: expire pending labels: %v", err)
		return
	}
	if n > 0 {
		logger.Warnf("jobs: marked %d abandoned pending label(s) failed", n)
	}
}

func PruneNotifications(ctx context.Context, notes NotificationPruner, retention time.Duration, logger echo.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := notes.PruneRead(ctx, retention)
	if err != nil {
		logger.Errorf("jobs: prune notifications: %v", err)
		return
	}
	if n > 0 {
		logger.Infof("jobs: pruned %d read notification(s)", n)
	}
}
