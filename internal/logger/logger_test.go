package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "..."},
		{"multibyte", "∫∫∫∫∫∫", 5, "∫∫..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		update *models.Update
		want   []string
	}{
		{
			name: "message",
			update: &models.Update{ID: 7, Message: &models.Message{
				ID:   3,
				Chat: models.Chat{ID: 100},
				From: &models.User{ID: 200},
				Text: "x**2 - 4",
			}},
			want: []string{"update_type=message", "chat_id=100", "user_id=200", "update_id=7"},
		},
		{
			name: "inaccessible callback",
			update: &models.Update{ID: 8, CallbackQuery: &models.CallbackQuery{
				ID:   "cb",
				From: models.User{ID: 201},
				Data: "main_menu",
				Message: models.MaybeInaccessibleMessage{
					InaccessibleMessage: &models.InaccessibleMessage{Chat: models.Chat{ID: 101}},
				},
			}},
			want: []string{"update_type=callback_query", "chat_id=101", "message_accessible=false", "data=main_menu"},
		},
		{
			name:   "other",
			update: &models.Update{ID: 9},
			want:   []string{"update_type=other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := New(&buf, "info", false)

			called := false
			h := Middleware(log)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
				called = true
			})
			h(context.Background(), nil, tt.update)

			if !called {
				t.Fatal("next handler was not called")
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log output missing %q:\n%s", w, out)
				}
			}
			if !strings.Contains(out, "Finished processing update") {
				t.Errorf("log output missing completion line:\n%s", out)
			}
		})
	}
}

func TestHTTPMiddlewareLogsRoutePattern(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", false)

	r := chi.NewRouter()
	r.Use(HTTPMiddleware(log))
	r.Post("/api/webhook/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/secret-token", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, "route=/api/webhook/{token}") {
		t.Errorf("log output missing route pattern:\n%s", out)
	}
	if !strings.Contains(out, "status=403") {
		t.Errorf("log output missing status:\n%s", out)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("log output leaks the path secret:\n%s", out)
	}
}
