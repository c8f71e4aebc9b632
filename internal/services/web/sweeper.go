package web

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExpiredSessions deletes sessions past their expiry.
type ExpiredSessions interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// StartSessionSweeper deletes expired sessions on schedule until stop is
// called. stop waits for a running sweep.
func StartSessionSweeper(ctx context.Context, store ExpiredSessions, schedule string, logger logrus.FieldLogger) (stop func(), err error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	runner := cron.New()
	_, err = runner.AddFunc(schedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		SweepSessions(sweepCtx, store, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session sweeper: %w", err)
	}
	runner.Start()
	return func() { <-runner.Stop().Done() }, nil
}

// SweepSessions runs one sweep, logging the outcome.
func SweepSessions(ctx context.Context, store ExpiredSessions, logger logrus.FieldLogger) {
	n, err := store.DeleteExpiredSessions(ctx)
	if err != nil {
		logger.WithError(err).Warn("delete expired sessions")
		return
	}
	if n > 0 {
		logger.WithField("count", n).Info("deleted expired sessions")
	}
}
