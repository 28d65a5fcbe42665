package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/bot/menu"
)

// NewHistoryHandler lists the latest solves of the user. It serves both the
// /history command and the history callback.
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps}.Handle
}

type historyHandler struct {
	deps HandlerDeps
}

func (h historyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "history")

	var chatID, userID int64
	switch {
	case update.CallbackQuery != nil:
		defer answerCallback(ctx, b, log, update.CallbackQuery)
		chatID, _ = callbackChat(update.CallbackQuery)
		userID = update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		chatID = update.Message.Chat.ID
		userID = update.Message.From.ID
	default:
		log.WarnContext(ctx, "History handler received update without sender", "update_id", update.ID)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	back := menu.BackButton(menu.CallbackMainMenu)
	entries, err := h.deps.Store.GetRecentSolutions(dbCtx, userID, h.deps.Config.History.Limit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load history", "error", err, "user_id", userID)
		sendScreen(ctx, b, log, chatID, screen{h.deps.Config.Messages.GeneralError, back})
		return
	}
	if len(entries) == 0 {
		sendScreen(ctx, b, log, chatID, screen{h.deps.Config.Messages.HistoryEmpty, back})
		return
	}

	log.InfoContext(ctx, "Sending history", "user_id", userID, "count", len(entries))
	sendScreen(ctx, b, log, chatID, screen{menu.RenderHistory(h.deps.Config.Messages.HistoryHeader, entries), back})
}
