package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/bot/menu"
)

// NewExampleHandler solves the canned expression behind an example button.
func NewExampleHandler(deps HandlerDeps) bot.HandlerFunc {
	return exampleHandler{deps}.Handle
}

type exampleHandler struct {
	deps HandlerDeps
}

func (h exampleHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "example")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	expression, ok := menu.ExampleExpression(cq.Data)
	if !ok {
		log.WarnContext(ctx, "Unknown example callback", "data", cq.Data)
		return
	}
	chatID, _ := callbackChat(cq)
	solveAndReply(ctx, b, h.deps, log, chatID, cq.From.ID, expression)
}
