// Package telegramtest provides a fake Telegram Bot API server for tests.
package telegramtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
)

// Token is the bot token the fake server expects.
const Token = "123456:TEST-TOKEN"

// Call is one recorded Bot API request.
type Call struct {
	Method string
	Params map[string]string
}

// Server records Bot API calls and answers them successfully.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
}

var boolMethods = map[string]bool{
	"answerCallbackQuery": true,
	"sendChatAction":      true,
	"setWebhook":          true,
	"deleteWebhook":       true,
	"setMyCommands":       true,
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	params := map[string]string{}
	if err := r.ParseMultipartForm(1 << 20); err == nil && r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		params = map[string]string{}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: method, Params: params})
	s.mu.Unlock()

	var result any = true
	switch {
	case method == "getUpdates":
		// Long polling would block; a short pause keeps the client from spinning.
		time.Sleep(20 * time.Millisecond)
		result = []any{}
	case !boolMethods[method]:
		result = map[string]any{
			"message_id": 1,
			"date":       0,
			"chat":       map[string]any{"id": 1, "type": "private"},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

// Bot returns a client pointed at the fake server.
func (s *Server) Bot(t *testing.T, opts ...bot.Option) *bot.Bot {
	t.Helper()
	opts = append([]bot.Option{bot.WithServerURL(s.URL), bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(Token, opts...)
	if err != nil {
		t.Fatalf("bot.New() error = %v", err)
	}
	return b
}

// Calls returns a copy of the recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls of one method.
func (s *Server) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
