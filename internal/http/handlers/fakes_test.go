package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"componentlab/internal/domain"
	"componentlab/internal/middleware"
)

type promptStore struct {
	mu      sync.Mutex
	prompts []domain.Prompt
	byKey   map[string]string
	seq     int
	err     error
}

func newPromptStore(prompts ...domain.Prompt) *promptStore {
	return &promptStore{prompts: prompts, byKey: map[string]string{}}
}

func (s *promptStore) Create(_ context.Context, np domain.NewPrompt) (*domain.Prompt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	if np.IdempotencyKey != nil {
		if id, ok := s.byKey[np.OwnerID+"|"+*np.IdempotencyKey]; ok {
			for i := range s.prompts {
				if s.prompts[i].ID == id {
					p := s.prompts[i]
					return &p, false, nil
				}
			}
		}
	}
	s.seq++
	now := time.Date(2024, 5, 1, 10, 0, s.seq, 0, time.UTC)
	p := domain.Prompt{
		ID:             fmt.Sprintf("00000000-0000-0000-0000-%012d", s.seq),
		OwnerID:        np.OwnerID,
		PromptText:     np.PromptText,
		Title:          np.Title,
		Status:         domain.PromptStatusPending,
		IdempotencyKey: np.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.prompts = append(s.prompts, p)
	if np.IdempotencyKey != nil {
		s.byKey[np.OwnerID+"|"+*np.IdempotencyKey] = p.ID
	}
	return &p, true, nil
}

func (s *promptStore) ListForOwner(_ context.Context, ownerID string) ([]domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Prompt
	for i := len(s.prompts) - 1; i >= 0; i-- {
		if s.prompts[i].OwnerID == ownerID {
			out = append(out, s.prompts[i])
		}
	}
	return out, nil
}

func (s *promptStore) FindForOwner(_ context.Context, id, ownerID string) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.prompts {
		if s.prompts[i].ID == id && s.prompts[i].OwnerID == ownerID {
			p := s.prompts[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *promptStore) FindBySlugForOwner(_ context.Context, slug, ownerID string) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.prompts {
		p := s.prompts[i]
		if p.PreviewSlug != nil && *p.PreviewSlug == slug && p.OwnerID == ownerID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *promptStore) FindByIdempotencyKey(_ context.Context, ownerID, key string) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.byKey[ownerID+"|"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for i := range s.prompts {
		if s.prompts[i].ID == id {
			p := s.prompts[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *promptStore) Delete(_ context.Context, id, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.prompts {
		if s.prompts[i].ID == id && s.prompts[i].OwnerID == ownerID {
			s.prompts = append(s.prompts[:i], s.prompts[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *promptStore) ListEligibleForBuild(context.Context, int, int) ([]domain.Prompt, error) {
	return nil, errors.New("not used")
}
func (s *promptStore) MarkBuilding(context.Context, string, *string) error { return nil }
func (s *promptStore) SaveGeneration(context.Context, string, *string, string) error {
	return nil
}
func (s *promptStore) MarkFailed(context.Context, string, string) error { return nil }
func (s *promptStore) SaveBuildResult(context.Context, string, domain.BuildResult) error {
	return nil
}

type recordedEvent struct {
	promptID string
	level    domain.EventLevel
	message  string
	fields   map[string]any
}

type eventStore struct {
	mu       sync.Mutex
	recorded []recordedEvent
	recent   map[string][]domain.PromptEvent
	limits   []int
}

func (e *eventStore) Record(_ context.Context, promptID string, level domain.EventLevel, message string, fields map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorded = append(e.recorded, recordedEvent{promptID, level, message, fields})
}

func (e *eventStore) ListRecent(_ context.Context, promptID string, limit int) ([]domain.PromptEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.limits = append(e.limits, limit)
	events := e.recent[promptID]
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (e *eventStore) ListRecentForMany(_ context.Context, ids []string, limit int) (map[string][]domain.PromptEvent, error) {
	out := map[string][]domain.PromptEvent{}
	for _, id := range ids {
		events, _ := e.ListRecent(context.Background(), id, limit)
		if len(events) > 0 {
			out[id] = events
		}
	}
	return out, nil
}

type staticTitles string

func (t staticTitles) TitleFor(context.Context, string) string { return string(t) }

type countingTitles struct {
	mu    sync.Mutex
	calls int
}

func (t *countingTitles) TitleFor(_ context.Context, text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return text
}

type notifierFunc func(ctx context.Context, id string) error

func (f notifierFunc) NotifyQueued(ctx context.Context, id string) error { return f(ctx, id) }

type countryFunc func(ip string) (string, error)

func (f countryFunc) CountryCode(ip string) (string, error) { return f(ip) }

type previewRemover struct{ removed []string }

func (p *previewRemover) RemovePreview(_ context.Context, slug string) error {
	p.removed = append(p.removed, slug)
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// testRouter mounts the app's prompt routes with a fixed caller identity.
func testRouter(app *App, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.ContextWithUserID(req.Context(), userID)))
		})
	})
	r.Post("/v1/prompts", app.CreatePrompt)
	r.Get("/v1/prompts", app.ListPrompts)
	r.Get("/v1/prompts/{id}", app.GetPrompt)
	r.Delete("/v1/prompts/{id}", app.DeletePrompt)
	r.Get("/v1/prompts/{id}/events", app.ListPromptEvents)
	r.Get("/v1/prompts/{id}/bundle", app.DownloadBundle)
	r.Get("/v1/previews/{slug}", app.Preview)
	return r
}

func newTestApp(prompts *promptStore, events *eventStore) *App {
	return &App{
		Prompts: prompts,
		Events:  events,
		Titles:  staticTitles("Pricing Table"),
		Logger:  zerolog.Nop(),
	}
}

func strPtr(s string) *string { return &s }
