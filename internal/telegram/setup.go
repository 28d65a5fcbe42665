// Package telegram creates the Bot API client, registers handlers and
// manages how updates are delivered (webhook or long polling).
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if i := strings.IndexByte(token, ':'); i > 0 {
		return token[:i]
	}
	if len(token) > 4 {
		return token[:4] + "..."
	}
	return "..."
}

// applyMiddleware wraps a handler so that the first middleware is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers handlers with the bot, applying their middleware.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType,
			applyMiddleware(regHandler.Handler, regHandler.Middleware))
		log.Debug("Registered handler", "name", name, "match_type", regHandler.MatchType, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registeredHandlers))
	return nil
}

// Commands are published to the Telegram command menu.
var Commands = []models.BotCommand{
	{Command: "start", Description: "Open the main menu"},
	{Command: "help", Description: "How to write expressions"},
	{Command: "history", Description: "Your recent solutions"},
}

// SetCommands publishes the command list. history is left out when the
// store is disabled.
func SetCommands(ctx context.Context, b *bot.Bot, withHistory bool) error {
	cmds := make([]models.BotCommand, 0, len(Commands))
	for _, c := range Commands {
		if c.Command == "history" && !withHistory {
			continue
		}
		cmds = append(cmds, c)
	}
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: cmds}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// WebhookURL builds the public webhook address <base><path>/<secret>. A base
// without scheme (as VERCEL_URL provides) is served over https.
func WebhookURL(baseURL, path, secret string) (string, error) {
	if baseURL == "" {
		return "", errors.New("webhook base URL is empty")
	}
	if secret == "" {
		return "", errors.New("webhook secret is empty")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid webhook base URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("webhook base URL %q has no host", baseURL)
	}
	return u.String() + "/" + strings.Trim(path, "/") + "/" + url.PathEscape(secret), nil
}

// RegisterWebhook points Telegram at the webhook URL.
func RegisterWebhook(ctx context.Context, b *bot.Bot, webhookURL string, dropPending bool) error {
	ok, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                webhookURL,
		DropPendingUpdates: dropPending,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return errors.New("telegram refused to set the webhook")
	}
	return nil
}

// DeleteWebhook removes any webhook so that long polling can receive updates.
func DeleteWebhook(ctx context.Context, b *bot.Bot, dropPending bool) error {
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
