// Package handlers contains the Telegram command, callback and message
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimit drops updates from users who exhausted their token bucket and
// tells them to slow down.
func RateLimit(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			userID := updateUserID(update)
			if userID == 0 || deps.Limiter.Allow(userID) {
				next(ctx, b, update)
				return
			}

			log := deps.Logger.With("middleware", "RateLimit")
			log.WarnContext(ctx, "Rate limit exceeded", "user_id", userID)

			text := deps.Config.Messages.RateLimited
			if cq := update.CallbackQuery; cq != nil {
				_, err := b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
					CallbackQueryID: cq.ID,
					Text:            text,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to answer rate limited callback", "error", err, "user_id", userID)
				}
				return
			}
			if update.Message != nil {
				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: update.Message.Chat.ID, Text: text})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send rate limit message", "error", err, "chat_id", update.Message.Chat.ID)
				}
			}
		}
	}
}

func updateUserID(update *models.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}
