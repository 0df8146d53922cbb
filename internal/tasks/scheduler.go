// Package tasks runs the background maintenance jobs: audit log
// retention and a periodic queue depth gauge.
package tasks

import (
	"context"
	"time"

	"github.com/jdelrosario/kiosk-server/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// InitScheduler registers the cron jobs and starts the scheduler.
func InitScheduler(svc service.Service, logger *zap.Logger, auditRetentionDays int) *cron.Cron {
	c := cron.New()

	retention := time.Duration(auditRetentionDays) * 24 * time.Hour

	// Trim old audit entries every night at 03:00.
	_, err := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := svc.TrimAuditEntries(ctx, retention)
		if err != nil {
			logger.Error("audit trim failed", zap.Error(err))
			return
		}
		logger.Info("audit trim complete", zap.Int64("removed", removed))
	})
	if err != nil {
		logger.Error("failed to register audit trim job", zap.Error(err))
	}

	// Log the queue depth every five minutes.
	_, err = c.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		depth, err := svc.PendingDepth(ctx)
		if err != nil {
			logger.Error("queue depth check failed", zap.Error(err))
			return
		}
		logger.Info("queue depth", zap.Int("pending", depth))
	})
	if err != nil {
		logger.Error("failed to register queue depth job", zap.Error(err))
	}

	c.Start()
	logger.Info("scheduler started")
	return c
}
