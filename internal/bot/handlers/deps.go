package handlers

import (
	"log/slog"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/gemini"
	"github.com/edgard/mathsolverbot/internal/ratelimit"
	"github.com/edgard/mathsolverbot/internal/solver"
)

// HandlerDeps provides dependencies for Telegram handlers. Store, Explainer
// and Limiter are optional; a nil value disables the matching feature.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Solver    *solver.Solver
	Store     database.Store
	Explainer gemini.Explainer
	Limiter   *ratelimit.Limiter
}
