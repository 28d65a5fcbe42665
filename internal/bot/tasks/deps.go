// Package tasks implements the periodic housekeeping jobs: expiring sessions,
// trimming solve history, forgetting idle rate limiters and vacuuming SQLite.
package tasks

import (
	"log/slog"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/ratelimit"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Limiter *ratelimit.Limiter
	Config  *config.Config
}
