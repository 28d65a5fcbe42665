package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/solver"
)

const (
	sendMessageTimeout = 10 * time.Second
	dbTimeout          = 5 * time.Second
)

// screen is a message body with its keyboard.
type screen struct {
	text   string
	markup *models.InlineKeyboardMarkup
}

func sendScreen(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, s screen) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      s.text,
		ParseMode: models.ParseModeMarkdownV1,
	}
	if s.markup != nil {
		params.ReplyMarkup = s.markup
	}
	if _, err := b.SendMessage(sendCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// editScreen replaces the message a callback came from. Inaccessible
// messages cannot be edited, so a new message is sent instead.
func editScreen(ctx context.Context, b *bot.Bot, log *slog.Logger, cq *models.CallbackQuery, s screen) {
	chatID, msg := callbackChat(cq)
	if msg == nil {
		sendScreen(ctx, b, log, chatID, s)
		return
	}

	editCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      s.text,
		ParseMode: models.ParseModeMarkdownV1,
	}
	if s.markup != nil {
		params.ReplyMarkup = s.markup
	}
	if _, err := b.EditMessageText(editCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to edit message", "error", err, "chat_id", chatID, "message_id", msg.ID)
	}
}

func answerCallback(ctx context.Context, b *bot.Bot, log *slog.Logger, cq *models.CallbackQuery) {
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", err, "callback_id", cq.ID)
	}
}

func sendTyping(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64) {
	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err, "chat_id", chatID)
	}
}

// callbackChat returns the chat of a callback and its message when accessible.
func callbackChat(cq *models.CallbackQuery) (int64, *models.Message) {
	switch {
	case cq.Message.Message != nil:
		return cq.Message.Message.Chat.ID, cq.Message.Message
	case cq.Message.InaccessibleMessage != nil:
		return cq.Message.InaccessibleMessage.Chat.ID, nil
	}
	return cq.From.ID, nil
}

// solveAndReply runs one solve, replies with the rendered result and records
// it. Recording failures never affect the reply.
func solveAndReply(ctx context.Context, b *bot.Bot, deps HandlerDeps, log *slog.Logger, chatID, userID int64, text string) {
	sendTyping(ctx, b, log, chatID)

	res := deps.Solver.Solve(ctx, text)
	log.InfoContext(ctx, "Solved expression",
		"chat_id", chatID, "user_id", userID, "category", res.Category, "success", res.Success)

	sendScreen(ctx, b, log, chatID, resultScreen(deps, res))
	recordSolution(ctx, deps, log, chatID, userID, res)
}

func recordSolution(ctx context.Context, deps HandlerDeps, log *slog.Logger, chatID, userID int64, res solver.Result) {
	if deps.Store == nil || userID == 0 {
		return
	}
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
	defer cancel()

	now := time.Now()
	last := res.Result
	if !res.Success {
		last = "error: " + res.Error
	}
	session := &database.Session{
		UserID:         userID,
		ChatID:         chatID,
		LastExpression: res.Expression,
		LastCategory:   string(res.Category),
		LastResult:     last,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(deps.Config.Session.TTL),
	}
	if err := deps.Store.UpsertSession(dbCtx, session); err != nil {
		log.ErrorContext(ctx, "Failed to save session", "error", err, "user_id", userID)
	}

	if res.Expression == "" {
		return
	}
	solution := &database.Solution{
		UserID:     userID,
		ChatID:     chatID,
		Expression: res.Expression,
		Category:   string(res.Category),
		Success:    res.Success,
		Result:     res.Result,
		Error:      res.Error,
		CreatedAt:  now,
	}
	if err := deps.Store.SaveSolution(dbCtx, solution); err != nil {
		log.ErrorContext(ctx, "Failed to save solution", "error", err, "user_id", userID)
	}
}
