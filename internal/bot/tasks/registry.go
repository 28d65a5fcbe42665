package tasks

import (
	"context"

	"github.com/edgard/mathsolverbot/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the available tasks keyed by the name used in the
// scheduler section of the configuration. Tasks whose dependency is missing
// are left out.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	if deps.Store != nil {
		tasks[config.TaskSessionCleanup] = newSessionCleanupTask(deps)
		tasks[config.TaskHistoryRetention] = newHistoryRetentionTask(deps)
		tasks[config.TaskSQLMaintenance] = newSQLMaintenanceTask(deps)
	}
	if deps.Limiter != nil {
		tasks[config.TaskRateLimitCleanup] = newRateLimitCleanupTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
