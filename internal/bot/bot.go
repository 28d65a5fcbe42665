// Package bot wires the Telegram client, the update delivery (webhook server
// or long polling) and the housekeeping scheduler into one lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/telegram"
	"github.com/edgard/mathsolverbot/internal/webhook"
)

const startupCallTimeout = 15 * time.Second

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	store     database.Store
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates the orchestrator. store and scheduler may be nil.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	store database.Store,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		store:     store,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts update delivery and the scheduler and blocks until ctx is
// cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "mode", b.cfg.Telegram.Mode)

	callCtx, cancel := context.WithTimeout(ctx, startupCallTimeout)
	if err := telegram.SetCommands(callCtx, b.tgBot, b.store != nil); err != nil {
		b.logger.Warn("Failed to publish bot commands", "error", err)
	}
	cancel()

	g, gCtx := errgroup.WithContext(ctx)

	if b.cfg.Telegram.Mode == config.ModePolling {
		g.Go(func() error { return b.runPolling(gCtx) })
	} else {
		g.Go(func() error { return b.runWebhook(gCtx) })
	}

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

func (b *Bot) runWebhook(ctx context.Context) error {
	wh := b.cfg.Webhook

	if wh.RegisterOnStart {
		url, err := telegram.WebhookURL(wh.BaseURL, wh.Path, wh.Secret)
		if err != nil {
			return fmt.Errorf("cannot register webhook: %w", err)
		}
		callCtx, cancel := context.WithTimeout(ctx, startupCallTimeout)
		err = telegram.RegisterWebhook(callCtx, b.tgBot, url, wh.DropPendingUpdates)
		cancel()
		if err != nil {
			return err
		}
		b.logger.Info("Webhook registered", "base_url", wh.BaseURL, "path", wh.Path)
	}

	var health webhook.HealthChecker
	if b.store != nil {
		health = b.store
	}
	router := webhook.NewRouter(wh, b.tgBot, health, b.logger)
	srv := webhook.NewServer(wh, router)
	if err := webhook.Serve(ctx, srv, wh.ShutdownTimeout, b.logger); err != nil {
		return fmt.Errorf("webhook server failed: %w", err)
	}
	return nil
}

func (b *Bot) runPolling(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, startupCallTimeout)
	if err := telegram.DeleteWebhook(callCtx, b.tgBot, b.cfg.Webhook.DropPendingUpdates); err != nil {
		b.logger.Warn("Failed to delete webhook before polling", "error", err)
	}
	cancel()

	b.logger.Info("Starting Telegram long polling...")
	b.tgBot.Start(ctx)
	b.logger.Info("Telegram long polling stopped.")

	if ctx.Err() == nil {
		b.logger.Warn("Telegram long polling stopped unexpectedly without context cancellation.")
		return errors.New("telegram listener stopped unexpectedly")
	}
	return nil
}
