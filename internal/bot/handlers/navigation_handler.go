package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/bot/menu"
)

// NewNavigationHandler serves the static menu callbacks.
func NewNavigationHandler(deps HandlerDeps) bot.HandlerFunc {
	return navigationHandler{deps}.Handle
}

type navigationHandler struct {
	deps HandlerDeps
}

func (h navigationHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "navigation")

	cq := update.CallbackQuery
	if cq == nil {
		log.WarnContext(ctx, "Navigation handler received update without callback", "update_id", update.ID)
		return
	}
	defer answerCallback(ctx, b, log, cq)

	switch cq.Data {
	case menu.CallbackMainMenu:
		editScreen(ctx, b, log, cq, mainMenuScreen(h.deps))
	case menu.CallbackSolveMath:
		editScreen(ctx, b, log, cq, solveModeScreen(h.deps))
	case menu.CallbackShowExamples:
		editScreen(ctx, b, log, cq, examplesScreen(h.deps))
	case menu.CallbackHelp:
		chatID, _ := callbackChat(cq)
		sendScreen(ctx, b, log, chatID, helpScreen(h.deps))
	default:
		log.WarnContext(ctx, "Unknown navigation callback", "data", cq.Data)
	}
}
