package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/bot/menu"
)

// NewExplainHandler asks the explainer about the last expression the user
// solved, as remembered by their session.
func NewExplainHandler(deps HandlerDeps) bot.HandlerFunc {
	return explainHandler{deps}.Handle
}

type explainHandler struct {
	deps HandlerDeps
}

func (h explainHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "explain")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	chatID, _ := callbackChat(cq)
	back := menu.BackButton(menu.CallbackSolveMath)

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	session, err := h.deps.Store.GetSession(dbCtx, cq.From.ID)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load session", "error", err, "user_id", cq.From.ID)
		sendScreen(ctx, b, log, chatID, screen{h.deps.Config.Messages.GeneralError, back})
		return
	}
	if session == nil || session.LastExpression == "" {
		sendScreen(ctx, b, log, chatID, screen{h.deps.Config.Messages.NothingToExplain, back})
		return
	}

	sendTyping(ctx, b, log, chatID)
	explanation, err := h.deps.Explainer.Explain(ctx, session.LastExpression, session.LastCategory, session.LastResult)
	if err != nil {
		log.ErrorContext(ctx, "Explanation failed", "error", err, "user_id", cq.From.ID)
		sendScreen(ctx, b, log, chatID, screen{h.deps.Config.Messages.ExplainError, back})
		return
	}

	log.InfoContext(ctx, "Sending explanation", "user_id", cq.From.ID, "category", session.LastCategory)
	sendScreen(ctx, b, log, chatID, screen{menu.RenderExplanation(session.LastExpression, explanation), back})
}
