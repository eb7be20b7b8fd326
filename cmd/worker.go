package cmd

import (
	"context"
	"errors"
	"time"

	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/task"

	"go.uber.org/zap"
)

// Worker consumes the task queue and periodically purges expired sessions.
func Worker(ctx context.Context, worker *task.Worker, sessions repository.SessionRepository, concurrency int, logger *zap.Logger) error {
	go cleanSessions(ctx, sessions, time.Hour, logger)

	if err := worker.Run(ctx, concurrency); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func cleanSessions(ctx context.Context, sessions repository.SessionRepository, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Error("Failed to clean expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Expired sessions cleaned", zap.Int64("count", n))
			}
		}
	}
}
