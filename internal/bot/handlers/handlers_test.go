package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/database"
	"github.com/edgard/mathsolverbot/internal/ratelimit"
	"github.com/edgard/mathsolverbot/internal/solver"
	"github.com/edgard/mathsolverbot/internal/telegram/telegramtest"
)

const (
	testChatID = 100
	testUserID = 200
)

type fakeExplainer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeExplainer) Explain(_ context.Context, expression, category, result string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, category+"|"+expression+"|"+result)
	if f.err != nil {
		return "", f.err
	}
	return "Differentiate term by term.", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Solver: config.SolverConfig{
			Timeout:             5 * time.Second,
			MaxExpressionLength: config.DefaultSolverMaxExpressionLength,
			DefaultVariable:     config.DefaultSolverDefaultVariable,
		},
		Session:  config.SessionConfig{TTL: time.Hour},
		History:  config.HistoryConfig{Limit: 5, Retention: 24 * time.Hour},
		Messages: config.DefaultMessages,
	}
}

func testDeps(t *testing.T, withStore bool) HandlerDeps {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	deps := HandlerDeps{
		Logger: log,
		Config: cfg,
		Solver: solver.New(cfg.Solver, log),
	}
	if withStore {
		db, err := database.NewDB(filepath.Join(t.TempDir(), "handlers.db"))
		if err != nil {
			t.Fatalf("NewDB() error = %v", err)
		}
		t.Cleanup(func() { database.CloseDB(db) })
		deps.Store = database.NewStore(db, log)
	}
	return deps
}

func textUpdate(text string) *models.Update {
	return &models.Update{ID: 1, Message: &models.Message{
		ID:   10,
		Chat: models.Chat{ID: testChatID},
		From: &models.User{ID: testUserID},
		Text: text,
	}}
}

func callbackUpdate(data string) *models.Update {
	return &models.Update{ID: 2, CallbackQuery: &models.CallbackQuery{
		ID:   "cb-1",
		From: models.User{ID: testUserID},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 11, Chat: models.Chat{ID: testChatID}},
		},
	}}
}

func lastText(t *testing.T, srv *telegramtest.Server, method string) string {
	t.Helper()
	calls := srv.CallsTo(method)
	if len(calls) == 0 {
		t.Fatalf("no %s call recorded; calls: %v", method, srv.Calls())
	}
	return calls[len(calls)-1].Params["text"]
}

func TestRegisterAllHandlers(t *testing.T) {
	t.Parallel()

	base := []string{
		"/start", "/help",
		"callback:main_menu", "callback:solve_math", "callback:show_examples", "callback:help", "callback:example_",
	}

	tests := []struct {
		name    string
		deps    HandlerDeps
		want    []string
		missing []string
	}{
		{"bare", HandlerDeps{}, base, []string{"/history", "callback:history", "callback:explain"}},
		{"store", HandlerDeps{Store: database.NewStore(nil, nil)}, append(base, "/history", "callback:history"), []string{"callback:explain"}},
		{"store and explainer", HandlerDeps{Store: database.NewStore(nil, nil), Explainer: &fakeExplainer{}}, append(base, "/history", "callback:history", "callback:explain"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RegisterAllHandlers(tt.deps)
			for _, key := range tt.want {
				h, ok := got[key]
				if !ok {
					t.Errorf("handler %q not registered", key)
					continue
				}
				if h.Handler == nil {
					t.Errorf("handler %q is nil", key)
				}
			}
			for _, key := range tt.missing {
				if _, ok := got[key]; ok {
					t.Errorf("handler %q registered, want absent", key)
				}
			}
		})
	}
}

func TestDefaultHandlerSolvesAndRecords(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, true)

	NewDefaultHandler(deps)(context.Background(), b, textUpdate("2 + 2 * 2"))

	if n := len(srv.CallsTo("sendChatAction")); n != 1 {
		t.Errorf("sendChatAction calls = %d, want 1", n)
	}
	calls := srv.CallsTo("sendMessage")
	if len(calls) != 1 {
		t.Fatalf("sendMessage calls = %d, want 1", len(calls))
	}
	p := calls[0].Params
	if !strings.Contains(p["text"], "✅ *Result:* `6`") {
		t.Errorf("reply text = %q", p["text"])
	}
	if p["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %q, want Markdown", p["parse_mode"])
	}
	if p["chat_id"] != "100" {
		t.Errorf("chat_id = %q, want 100", p["chat_id"])
	}
	if !strings.Contains(p["reply_markup"], "solve_math") {
		t.Errorf("reply_markup = %q, want back button to solve_math", p["reply_markup"])
	}

	ctx := context.Background()
	session, err := deps.Store.GetSession(ctx, testUserID)
	if err != nil || session == nil {
		t.Fatalf("GetSession() = %v, %v", session, err)
	}
	if session.LastExpression != "2 + 2 * 2" || session.LastResult != "6" {
		t.Errorf("session = %+v", session)
	}
	history, err := deps.Store.GetRecentSolutions(ctx, testUserID, 5)
	if err != nil || len(history) != 1 {
		t.Fatalf("GetRecentSolutions() = %v, %v", history, err)
	}
}

func TestDefaultHandlerReportsFailures(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	NewDefaultHandler(testDeps(t, false))(context.Background(), srv.Bot(t), textUpdate("2 +"))

	text := lastText(t, srv, "sendMessage")
	if !strings.Contains(text, "❌ *Could not solve:* `2 +`") {
		t.Errorf("reply text = %q", text)
	}
}

func TestDefaultHandlerIgnores(t *testing.T) {
	t.Parallel()

	tests := map[string]*models.Update{
		"unknown command": textUpdate("/unknown"),
		"empty text":      textUpdate(""),
		"no message":      {ID: 3},
	}
	for name, upd := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := telegramtest.NewServer(t)
			NewDefaultHandler(testDeps(t, false))(context.Background(), srv.Bot(t), upd)
			if calls := srv.Calls(); len(calls) != 0 {
				t.Errorf("recorded calls %v, want none", calls)
			}
		})
	}
}

func TestDefaultHandlerAnswersStrayCallbacks(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	NewDefaultHandler(testDeps(t, false))(context.Background(), srv.Bot(t), callbackUpdate("explain"))

	if n := len(srv.CallsTo("answerCallbackQuery")); n != 1 {
		t.Errorf("answerCallbackQuery calls = %d, want 1", n)
	}
	if n := len(srv.CallsTo("sendMessage")); n != 0 {
		t.Errorf("sendMessage calls = %d, want 0", n)
	}
}

func TestStartAndHelpCommands(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, true)

	NewStartHandler(deps)(context.Background(), b, textUpdate("/start"))
	start := srv.CallsTo("sendMessage")[0].Params
	if start["text"] != config.DefaultMessages.Welcome {
		t.Errorf("/start text = %q", start["text"])
	}
	for _, cb := range []string{"solve_math", "show_examples", "history", "help"} {
		if !strings.Contains(start["reply_markup"], cb) {
			t.Errorf("/start keyboard missing %q: %s", cb, start["reply_markup"])
		}
	}

	NewHelpHandler(deps)(context.Background(), b, textUpdate("/help"))
	if got := lastText(t, srv, "sendMessage"); got != config.DefaultMessages.Help {
		t.Errorf("/help text = %q", got)
	}
}

func TestNavigationCallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data   string
		method string
		want   string
	}{
		{"main_menu", "editMessageText", config.DefaultMessages.MainMenu},
		{"solve_math", "editMessageText", config.DefaultMessages.SolveMode},
		{"show_examples", "editMessageText", config.DefaultMessages.Examples},
		{"help", "sendMessage", config.DefaultMessages.Help},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			t.Parallel()
			srv := telegramtest.NewServer(t)
			NewNavigationHandler(testDeps(t, false))(context.Background(), srv.Bot(t), callbackUpdate(tt.data))

			if got := lastText(t, srv, tt.method); got != tt.want {
				t.Errorf("%s text = %q, want %q", tt.method, got, tt.want)
			}
			if n := len(srv.CallsTo("answerCallbackQuery")); n != 1 {
				t.Errorf("answerCallbackQuery calls = %d, want 1", n)
			}
			if tt.method == "editMessageText" {
				if id := srv.CallsTo("editMessageText")[0].Params["message_id"]; id != "11" {
					t.Errorf("edited message_id = %q, want 11", id)
				}
			}
		})
	}
}

func TestNavigationInaccessibleMessageSendsNew(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	upd := callbackUpdate("main_menu")
	upd.CallbackQuery.Message = models.MaybeInaccessibleMessage{
		InaccessibleMessage: &models.InaccessibleMessage{Chat: models.Chat{ID: testChatID}, MessageID: 11},
	}
	NewNavigationHandler(testDeps(t, false))(context.Background(), srv.Bot(t), upd)

	if n := len(srv.CallsTo("editMessageText")); n != 0 {
		t.Errorf("editMessageText calls = %d, want 0", n)
	}
	if got := lastText(t, srv, "sendMessage"); got != config.DefaultMessages.MainMenu {
		t.Errorf("sendMessage text = %q", got)
	}
}

func TestExampleHandler(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"example_2+2*2":     "`6`",
		"example_x^2-4":     "`x**2 - 4`",
		"example_diff":      "`2*x`",
		"example_integrate": "`x**2/2 + C`",
		"example_solve":     "`[-2, 2]`",
	}
	for data, want := range tests {
		t.Run(data, func(t *testing.T) {
			t.Parallel()
			srv := telegramtest.NewServer(t)
			NewExampleHandler(testDeps(t, false))(context.Background(), srv.Bot(t), callbackUpdate(data))

			if got := lastText(t, srv, "sendMessage"); !strings.Contains(got, want) {
				t.Errorf("reply = %q, want it to contain %q", got, want)
			}
			if n := len(srv.CallsTo("answerCallbackQuery")); n != 1 {
				t.Errorf("answerCallbackQuery calls = %d, want 1", n)
			}
		})
	}
}

func TestExampleHandlerUnknownExample(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	NewExampleHandler(testDeps(t, false))(context.Background(), srv.Bot(t), callbackUpdate("example_nope"))

	if n := len(srv.CallsTo("answerCallbackQuery")); n != 1 {
		t.Errorf("answerCallbackQuery calls = %d, want 1", n)
	}
	if n := len(srv.CallsTo("sendMessage")); n != 0 {
		t.Errorf("sendMessage calls = %d, want 0", n)
	}
}

func TestHistoryHandler(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, true)
	ctx := context.Background()

	NewHistoryHandler(deps)(ctx, b, textUpdate("/history"))
	if got := lastText(t, srv, "sendMessage"); got != config.DefaultMessages.HistoryEmpty {
		t.Errorf("empty history text = %q", got)
	}

	solve := NewDefaultHandler(deps)
	solve(ctx, b, textUpdate("x**2 - 4"))
	solve(ctx, b, textUpdate("diff(x**2, x)"))

	NewHistoryHandler(deps)(ctx, b, callbackUpdate("history"))
	got := lastText(t, srv, "sendMessage")
	want := config.DefaultMessages.HistoryHeader + "\n" +
		"\n1. `diff(x**2, x)` → `2*x`" +
		"\n2. `x**2 - 4` → `x**2 - 4`"
	if got != want {
		t.Errorf("history text =\n%s\nwant\n%s", got, want)
	}
	if n := len(srv.CallsTo("answerCallbackQuery")); n != 1 {
		t.Errorf("answerCallbackQuery calls = %d, want 1", n)
	}
}

func TestExplainHandler(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, true)
	explainer := &fakeExplainer{}
	deps.Explainer = explainer
	ctx := context.Background()

	NewExplainHandler(deps)(ctx, b, callbackUpdate("explain"))
	if got := lastText(t, srv, "sendMessage"); got != config.DefaultMessages.NothingToExplain {
		t.Errorf("explain without session = %q", got)
	}

	NewDefaultHandler(deps)(ctx, b, textUpdate("diff(x**2, x)"))
	if markup := srv.CallsTo("sendMessage")[1].Params["reply_markup"]; !strings.Contains(markup, "explain") {
		t.Errorf("result keyboard lacks explain button: %s", markup)
	}

	NewExplainHandler(deps)(ctx, b, callbackUpdate("explain"))
	got := lastText(t, srv, "sendMessage")
	if !strings.Contains(got, "🤖 *Explanation for* `diff(x**2, x)`") || !strings.Contains(got, "Differentiate term by term.") {
		t.Errorf("explanation reply = %q", got)
	}
	if len(explainer.calls) != 1 || explainer.calls[0] != "derivative|diff(x**2, x)|2*x" {
		t.Errorf("explainer calls = %v", explainer.calls)
	}
}

func TestExplainHandlerFailure(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, true)
	deps.Explainer = &fakeExplainer{err: errors.New("quota exceeded")}
	ctx := context.Background()

	NewDefaultHandler(deps)(ctx, b, textUpdate("2 + 2"))
	NewExplainHandler(deps)(ctx, b, callbackUpdate("explain"))

	if got := lastText(t, srv, "sendMessage"); got != config.DefaultMessages.ExplainError {
		t.Errorf("explain failure reply = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	srv := telegramtest.NewServer(t)
	b := srv.Bot(t)
	deps := testDeps(t, false)
	deps.Limiter = ratelimit.New(config.RateLimitConfig{Enabled: true, Rate: 0.001, Burst: 1, IdleTTL: time.Minute})

	h := NewDefaultHandler(deps)
	h(context.Background(), b, textUpdate("1 + 1"))
	h(context.Background(), b, textUpdate("2 + 2"))

	calls := srv.CallsTo("sendMessage")
	if len(calls) != 2 {
		t.Fatalf("sendMessage calls = %d, want 2", len(calls))
	}
	if !strings.Contains(calls[0].Params["text"], "`2`") {
		t.Errorf("first reply = %q, want solved result", calls[0].Params["text"])
	}
	if calls[1].Params["text"] != config.DefaultMessages.RateLimited {
		t.Errorf("second reply = %q, want rate limit notice", calls[1].Params["text"])
	}
	if n := len(srv.CallsTo("sendChatAction")); n != 1 {
		t.Errorf("sendChatAction calls = %d, want 1", n)
	}

	RateLimit(deps)(NewExampleHandler(deps))(context.Background(), b, callbackUpdate("example_diff"))
	answers := srv.CallsTo("answerCallbackQuery")
	if len(answers) != 1 || answers[0].Params["text"] != config.DefaultMessages.RateLimited {
		t.Errorf("rate limited callback answers = %v", answers)
	}
	if n := len(srv.CallsTo("sendMessage")); n != 2 {
		t.Errorf("sendMessage calls after limited callback = %d, want 2", n)
	}
}
