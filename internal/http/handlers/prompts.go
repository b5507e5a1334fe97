package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"componentlab/internal/domain"
	"componentlab/internal/middleware"
	"componentlab/pkg/zip"
)

const (
	maxPromptRunes       = 4000
	maxIdempotencyKeyLen = 200
	maxRequestBody       = 64 << 10
	defaultEventsPage    = 20
	maxEventsPage        = 100
)

type createPromptRequest struct {
	Prompt string `json:"prompt"`
}

// CreatePrompt queues a new prompt for the worker. Replaying an
// Idempotency-Key returns the original prompt with 200.
func (a *App) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createPromptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	text := strings.TrimSpace(req.Prompt)
	if text == "" {
		a.error(w, http.StatusBadRequest, "validation_failed", "prompt is required")
		return
	}
	if utf8.RuneCountInString(text) > maxPromptRunes {
		a.error(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("prompt must be at most %d characters", maxPromptRunes))
		return
	}
	var key *string
	if raw := strings.TrimSpace(r.Header.Get("Idempotency-Key")); raw != "" {
		if len(raw) > maxIdempotencyKeyLen {
			a.error(w, http.StatusBadRequest, "validation_failed", "idempotency key too long")
			return
		}
		key = &raw

		existing, err := a.Prompts.FindByIdempotencyKey(r.Context(), userID, raw)
		switch {
		case err == nil:
			a.json(w, http.StatusOK, toSummary(*existing, nil))
			return
		case !errors.Is(err, domain.ErrNotFound):
			a.storeError(w, r, err, "prompt")
			return
		}
	}

	prompt, created, err := a.Prompts.Create(r.Context(), domain.NewPrompt{
		OwnerID:        userID,
		PromptText:     text,
		Title:          a.Titles.TitleFor(r.Context(), text),
		IdempotencyKey: key,
	})
	if err != nil {
		a.storeError(w, r, err, "prompt")
		return
	}
	if !created {
		a.json(w, http.StatusOK, toSummary(*prompt, nil))
		return
	}

	a.Events.Record(r.Context(), prompt.ID, domain.EventLevelInfo, "queued", a.intakeContext(r))
	if a.Notifier != nil {
		if err := a.Notifier.NotifyQueued(r.Context(), prompt.ID); err != nil {
			a.Logger.Warn().Err(err).Str("prompt_id", prompt.ID).Msg("api: notify worker failed")
		}
	}
	a.Logger.Info().Str("prompt_id", prompt.ID).Str("owner_id", userID).Msg("api: prompt queued")
	a.json(w, http.StatusCreated, toSummary(*prompt, nil))
}

func (a *App) intakeContext(r *http.Request) map[string]any {
	fields := map[string]any{}
	if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		fields["request_id"] = rid
	}
	if a.Geo != nil {
		if country, err := a.Geo.CountryCode(clientIP(r)); err == nil && country != "" {
			fields["country"] = country
		}
	}
	return fields
}

func (a *App) ListPrompts(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	prompts, err := a.Prompts.ListForOwner(r.Context(), userID)
	if err != nil {
		a.storeError(w, r, err, "prompts")
		return
	}
	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	events, err := a.Events.ListRecentForMany(r.Context(), ids, a.eventsLimit())
	if err != nil {
		a.storeError(w, r, err, "events")
		return
	}
	items := make([]promptSummary, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, toSummary(p, events[p.ID]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, ok := a.loadPrompt(w, r)
	if !ok {
		return
	}
	events, err := a.Events.ListRecent(r.Context(), prompt.ID, a.eventsLimit())
	if err != nil {
		a.storeError(w, r, err, "events")
		return
	}
	a.json(w, http.StatusOK, toDetail(*prompt, events, a.StorageBaseURL))
}

func (a *App) ListPromptEvents(w http.ResponseWriter, r *http.Request) {
	prompt, ok := a.loadPrompt(w, r)
	if !ok {
		return
	}
	limit := defaultEventsPage
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventsPage)
	}
	events, err := a.Events.ListRecent(r.Context(), prompt.ID, limit)
	if err != nil {
		a.storeError(w, r, err, "events")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toEvents(events)})
}

// DownloadBundle returns the source, compiled artifact and sandbox metadata of
// a ready prompt as a zip archive.
func (a *App) DownloadBundle(w http.ResponseWriter, r *http.Request) {
	prompt, ok := a.loadPrompt(w, r)
	if !ok {
		return
	}
	if prompt.Status != domain.PromptStatusReady || prompt.CompiledArtifact == nil {
		a.error(w, http.StatusConflict, "not_ready", domain.ErrNotReady.Error())
		return
	}
	sandbox, err := json.MarshalIndent(prompt.SandboxConfig, "", "  ")
	if err != nil {
		a.Logger.Error().Err(err).Str("prompt_id", prompt.ID).Msg("api: encode sandbox config failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	source := ""
	if prompt.GeneratedSource != nil {
		source = *prompt.GeneratedSource
	}
	files := []zip.File{
		{Name: "component.jsx", Data: []byte(source), Modified: prompt.UpdatedAt},
		{Name: "component.js", Data: []byte(*prompt.CompiledArtifact), Modified: prompt.UpdatedAt},
		{Name: "sandbox.json", Data: sandbox, Modified: prompt.UpdatedAt},
	}
	archive, err := zip.Archive(files)
	if err != nil {
		a.Logger.Error().Err(err).Str("prompt_id", prompt.ID).Msg("api: build bundle failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	name := prompt.ID
	if prompt.PreviewSlug != nil {
		name = *prompt.PreviewSlug
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")

	// Looked up first so the mirrored preview can be removed too.
	prompt, err := a.Prompts.FindForOwner(r.Context(), id, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.storeError(w, r, err, "prompt")
		return
	}
	n, err := a.Prompts.Delete(r.Context(), id, userID)
	if err != nil {
		a.storeError(w, r, err, "prompt")
		return
	}
	if n == 0 {
		a.error(w, http.StatusNotFound, "not_found", "prompt not found")
		return
	}
	if prompt != nil && prompt.PreviewSlug != nil && a.Previews != nil {
		if err := a.Previews.RemovePreview(r.Context(), *prompt.PreviewSlug); err != nil {
			a.Logger.Warn().Err(err).Str("prompt_id", id).Msg("api: remove preview failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview serves the compiled artifact by slug for the owner's sandbox frame.
func (a *App) Preview(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	prompt, err := a.Prompts.FindBySlugForOwner(r.Context(), chi.URLParam(r, "slug"), userID)
	if err != nil {
		a.storeError(w, r, err, "preview")
		return
	}
	if prompt.CompiledArtifact == nil {
		a.error(w, http.StatusNotFound, "not_found", "preview not found")
		return
	}
	if prompt.SandboxConfig != nil {
		if raw, err := json.Marshal(prompt.SandboxConfig); err == nil {
			w.Header().Set("X-Sandbox-Config", string(raw))
		}
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, *prompt.CompiledArtifact)
}

func (a *App) loadPrompt(w http.ResponseWriter, r *http.Request) (*domain.Prompt, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, false
	}
	prompt, err := a.Prompts.FindForOwner(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		a.storeError(w, r, err, "prompt")
		return nil, false
	}
	return prompt, true
}
