// Package webhook exposes the HTTP endpoint Telegram delivers updates to.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/mathsolverbot/internal/config"
	"github.com/edgard/mathsolverbot/internal/logger"
)

const healthTimeout = 2 * time.Second

// UpdateProcessor routes one decoded update. *bot.Bot satisfies it.
type UpdateProcessor interface {
	ProcessUpdate(ctx context.Context, upd *models.Update)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type handler struct {
	secret    []byte
	maxBody   int64
	processor UpdateProcessor
	health    HealthChecker
	log       *slog.Logger
}

// NewRouter builds the HTTP routes:
//
//	POST <path>          and POST <path>/{token}: receive an update
//	GET  /healthz        liveness, pings health when set
//
// The last path segment of a webhook request must equal the secret.
func NewRouter(cfg config.WebhookConfig, processor UpdateProcessor, health HealthChecker, log *slog.Logger) http.Handler {
	h := &handler{
		secret:    []byte(cfg.Secret),
		maxBody:   cfg.MaxBodyBytes,
		processor: processor,
		health:    health,
		log:       log.With("component", "webhook"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(h.log))
	r.Use(middleware.Recoverer)

	base := "/" + strings.Trim(cfg.Path, "/")
	r.Post(base, h.handleUpdate)
	r.Post(base+"/{token}", h.handleUpdate)
	r.Get("/healthz", h.handleHealth)

	return r
}

func (h *handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		token = path.Base(r.URL.Path)
	}
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}
	if len(h.secret) == 0 || subtle.ConstantTimeCompare([]byte(token), h.secret) != 1 {
		h.log.WarnContext(r.Context(), "Rejected webhook request with invalid token",
			"remote_addr", r.RemoteAddr, "request_id", middleware.GetReqID(r.Context()))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var upd models.Update
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(body).Decode(&upd); err != nil {
		h.log.WarnContext(r.Context(), "Failed to decode update", "error", err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	h.process(context.WithoutCancel(r.Context()), &upd)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// process hands the update to the router. Telegram gets 200 whatever the
// outcome, otherwise it would redeliver the same update.
func (h *handler) process(ctx context.Context, upd *models.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.ErrorContext(ctx, "Update processing panicked", "update_id", upd.ID, "panic", rec)
		}
	}()
	h.processor.ProcessUpdate(ctx, upd)
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.log.ErrorContext(r.Context(), "Health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// NewServer wraps handler in an http.Server with the configured timeouts.
func NewServer(cfg config.WebhookConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Webhook server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down webhook server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Webhook server stopped")
	return nil
}
