package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDefaultHandler returns the handler for any text that did not match a
// registered command: the text is solved as a math expression. Unknown
// commands are ignored.
func NewDefaultHandler(deps HandlerDeps) bot.HandlerFunc {
	return RateLimit(deps)(solveHandler{deps}.Handle)
}

type solveHandler struct {
	deps HandlerDeps
}

func (h solveHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "solve")

	if cq := update.CallbackQuery; cq != nil {
		log.WarnContext(ctx, "Unhandled callback", "data", cq.Data)
		answerCallback(ctx, b, log, cq)
		return
	}

	msg := update.Message
	if msg == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring update without text", "update_id", update.ID)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", msg.Chat.ID)
		return
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	solveAndReply(ctx, b, h.deps, log, msg.Chat.ID, userID, msg.Text)
}
