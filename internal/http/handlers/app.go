package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"componentlab/internal/domain"
	"componentlab/internal/infra/geoip"
	"componentlab/internal/middleware"
	"componentlab/internal/providers/title"
)

// QueueNotifier wakes the worker after intake.
type QueueNotifier interface {
	NotifyQueued(ctx context.Context, promptID string) error
}

// PreviewRemover deletes mirrored preview artifacts.
type PreviewRemover interface {
	RemovePreview(ctx context.Context, slug string) error
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Prompts  domain.PromptRepository
	Events   domain.EventLog
	Titles   title.Summarizer
	Notifier QueueNotifier
	Geo      geoip.CountryResolver
	Previews PreviewRemover
	DB       Pinger
	Logger   zerolog.Logger

	StorageBaseURL string
	EventsLimit    int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// storeError maps repository errors onto responses.
func (a *App) storeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", what+" not found")
		return
	}
	a.Logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg("api: store failure")
	a.error(w, http.StatusInternalServerError, "internal", "internal error")
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) eventsLimit() int {
	if a.EventsLimit <= 0 {
		return 5
	}
	return a.EventsLimit
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first := strings.TrimSpace(strings.Split(xf, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
