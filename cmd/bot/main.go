// Package main contains the entrypoint for the math solver Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/mathsolverbot/internal/bot"
	"github.com/edgard/mathsolverbot/internal/bot/handlers"
	"github.com/edgard/mathsolverbot/internal/bot/tasks"
	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/gemini"
	"github.com/edgard/mathsolverbot/internal/logger"
	"github.com/edgard/mathsolverbot/internal/ratelimit"
	"github.com/edgard/mathsolverbot/internal/solver"
	"github.com/edgard/mathsolverbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run builds every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	var explainer gemini.Explainer
	if cfg.Gemini.Enabled() {
		explainer, err = gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
	} else {
		log.Info("Gemini API key not set, explanations disabled")
	}

	limiter := ratelimit.New(cfg.RateLimit)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Solver:    solver.New(cfg.Solver, log),
		Store:     store,
		Explainer: explainer,
		Limiter:   limiter,
	}
	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Limiter: limiter,
		Config:  cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}
	if cfg.Telegram.Mode == config.ModeWebhook {
		// The webhook request stays open until the update is handled.
		botOpts = append(botOpts, tgbot.WithNotAsyncHandlers())
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllHandlers(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
