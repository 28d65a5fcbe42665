package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/mathsolverbot/internal/bot/menu"
)

// RegisteredHandler represents a handler with its match rule and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllHandlers returns every command and callback handler keyed by a
// descriptive name. Free text is served by NewDefaultHandler instead.
func RegisterAllHandlers(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)
	limited := []tgbot.Middleware{RateLimit(deps)}

	command := func(name string, h tgbot.HandlerFunc) {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     h,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}
	callback := func(data string, match tgbot.MatchType, h tgbot.HandlerFunc, mw []tgbot.Middleware) {
		handlers["callback:"+data] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     data,
			Handler:     h,
			Middleware:  mw,
			MatchType:   match,
		}
	}

	command("start", NewStartHandler(deps))
	command("help", NewHelpHandler(deps))

	nav := NewNavigationHandler(deps)
	callback(menu.CallbackMainMenu, tgbot.MatchTypeExact, nav, nil)
	callback(menu.CallbackSolveMath, tgbot.MatchTypeExact, nav, nil)
	callback(menu.CallbackShowExamples, tgbot.MatchTypeExact, nav, nil)
	callback(menu.CallbackHelp, tgbot.MatchTypeExact, nav, nil)
	callback(menu.CallbackExamplePfx, tgbot.MatchTypePrefix, NewExampleHandler(deps), limited)

	if deps.Store != nil {
		command("history", NewHistoryHandler(deps))
		callback(menu.CallbackHistory, tgbot.MatchTypeExact, NewHistoryHandler(deps), nil)
	}
	if deps.Explainer != nil && deps.Store != nil {
		callback(menu.CallbackExplain, tgbot.MatchTypeExact, NewExplainHandler(deps), limited)
	}

	return handlers
}
