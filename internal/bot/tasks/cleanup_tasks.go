package tasks

import (
	"context"
	"fmt"
	"time"
)

func newSessionCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_cleanup")

	return func(ctx context.Context) error {
		removed, err := deps.Store.DeleteExpiredSessions(ctx, time.Now())
		if err != nil {
			log.ErrorContext(ctx, "Session cleanup failed", "error", err)
			return fmt.Errorf("session cleanup failed: %w", err)
		}
		log.InfoContext(ctx, "Expired sessions removed", "count", removed)
		return nil
	}
}

// newHistoryRetentionTask drops history entries older than the configured
// retention. A zero retention keeps everything.
func newHistoryRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_retention")

	return func(ctx context.Context) error {
		var retention time.Duration
		if deps.Config != nil {
			retention = deps.Config.History.Retention
		}
		if retention <= 0 {
			log.DebugContext(ctx, "History retention disabled, nothing to do")
			return nil
		}

		cutoff := time.Now().Add(-retention)
		removed, err := deps.Store.DeleteSolutionsBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "History retention failed", "cutoff", cutoff, "error", err)
			return fmt.Errorf("history retention failed: %w", err)
		}
		log.InfoContext(ctx, "Old history entries removed", "count", removed, "cutoff", cutoff)
		return nil
	}
}

func newRateLimitCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "rate_limit_cleanup")

	return func(ctx context.Context) error {
		idle := time.Hour
		if deps.Config != nil && deps.Config.RateLimit.IdleTTL > 0 {
			idle = deps.Config.RateLimit.IdleTTL
		}
		removed := deps.Limiter.Cleanup(idle)
		log.DebugContext(ctx, "Idle rate limiters removed", "count", removed, "remaining", deps.Limiter.Len())
		return nil
	}
}
